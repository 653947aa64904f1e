package account

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/julianstephens/hydratemate/internal/auth"
	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/logger"
)

// newProvider is a seam for tests
var newProvider = func(cfg *config.Config) (auth.Provider, error) {
	return auth.NewGoTrueClient(cfg.Auth.URL, cfg.Auth.AnonKey)
}

// openSession restores the cached session and logs session events until
// the returned close function runs.
func openSession(ctx context.Context, cfg *config.Config) (*auth.Session, func(), error) {
	p, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	s := auth.NewSession(p)
	events, unsubscribe := s.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			logger.Debug("Auth session changed", "event", ev.Kind.String(), "user", emailOf(ev.User))
		}
	}()
	s.Init(ctx)
	return s, func() {
		unsubscribe()
		s.Close()
		<-done
	}, nil
}

func emailOf(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

func greet(ctx *cli.Context, verb string, u *auth.User) {
	name := u.FullName()
	if name == "" {
		name = u.Email
	}
	ctx.Printf("✓ %s as %s\n", verb, name)
}

type SignUpCmd struct {
	Email string `help:"Account email."`
	Name  string `help:"Full name."`
}

func (c *SignUpCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	s, closeSession, err := openSession(bg, ctx.Config)
	if err != nil {
		return err
	}
	defer closeSession()

	data := auth.SignUpData{Email: strings.TrimSpace(c.Email), FullName: strings.TrimSpace(c.Name)}
	if err := promptSignUp(&data); err != nil {
		return err
	}
	user, err := s.SignUp(bg, data)
	if err != nil {
		return err
	}
	greet(ctx, "Account created, signed in", user)
	if !ctx.Onboarding.Completed(bg) {
		ctx.Println("  Next: run 'hydratemate setup' to pick your goal and reminders.")
	}
	return nil
}

type SignInCmd struct {
	Email string `help:"Account email."`
}

func (c *SignInCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	s, closeSession, err := openSession(bg, ctx.Config)
	if err != nil {
		return err
	}
	defer closeSession()

	if u := s.User(); u != nil && (c.Email == "" || strings.EqualFold(u.Email, c.Email)) {
		greet(ctx, "Already signed in", u)
		return nil
	}

	data := auth.SignInData{Email: strings.TrimSpace(c.Email)}
	if err := promptSignIn(&data); err != nil {
		return err
	}
	user, err := s.SignIn(bg, data)
	if err != nil {
		if stderrors.Is(err, auth.ErrEmailNotConfirmed) {
			ctx.Println("Check your inbox for the confirmation link, then sign in again.")
		}
		return err
	}
	greet(ctx, "Signed in", user)
	return nil
}

type SignOutCmd struct{}

func (c *SignOutCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	s, closeSession, err := openSession(bg, ctx.Config)
	if err != nil {
		return err
	}
	defer closeSession()

	if !s.Authenticated() {
		ctx.Println("Not signed in.")
		return nil
	}
	if err := s.SignOut(bg); err != nil {
		return err
	}
	ctx.Println("✓ Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	s, closeSession, err := openSession(context.Background(), ctx.Config)
	if err != nil {
		return err
	}
	defer closeSession()

	u := s.User()
	if u == nil {
		ctx.Println("Not signed in. Use 'hydratemate account signin'.")
		return nil
	}
	if name := u.FullName(); name != "" {
		ctx.Printf("Name:    %s\n", name)
	}
	ctx.Printf("Email:   %s\n", u.Email)
	if !u.CreatedAt.IsZero() {
		ctx.Printf("Member since %s\n", u.CreatedAt.In(ctx.Engine.Location()).Format("Jan 2, 2006"))
	}
	return nil
}
