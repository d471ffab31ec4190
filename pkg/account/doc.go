// Package account manages user accounts: email/password registration and
// login backed by bcrypt, and Google sign-in through golang.org/x/oauth2.
//
// A newly created user has no subscription. Callers that keep per-user
// state elsewhere (the subscription record store in development mode, for
// example) hook into creation with WithAfterCreate; hooks run inline, before
// Register or GoogleCallback return, and their failures are only logged.
//
//	svc := account.NewService(store,
//	    account.WithLogger(log),
//	    account.WithGoogleOAuth(googleCfg, states),
//	)
//	user, err := svc.Register(ctx, "Jane", "jane@example.com", "correct horse")
package account
