// Package auth provides authentication and authorization for the API.
//
// Accounts are identified by email and protected with bcrypt password
// hashes. A successful login yields an HS256 JWT carrying the user id and
// email; clients send it back as "Authorization: Bearer <token>".
//
// # Configuration
//
//	JWT_SECRET=<random string>            # Required, signs bearer tokens
//	AUTH_TOKEN_EXPIRY=1h                   # Token lifetime
//	AUTH_TOKEN_ISSUER=bookshelf            # "iss" claim, checked on verify
//	AUTH_BCRYPT_COST=10                    # bcrypt cost factor
//	AUTH_MIN_PASSWORD_LENGTH=8             # Registration password policy
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failed logins before lockout
//	AUTH_ALLOW_INSECURE_SECRET=false       # Generate a throwaway secret (dev only)
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer)
//	authService := auth.NewService(usersRepo, tokens, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(tokens)
//	protected := router.Group("/", authMiddleware.RequireAuth())
//
// Extract the caller in handlers and check ownership in services:
//
//	userID := auth.GetUserID(c)
//	if err := auth.RequireOwner(userID, book.UserID); err != nil { ... }
package auth
