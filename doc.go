// Package authservice is an email/password authentication engine with an
// optional emailed second factor and revocable JWT session tokens.
//
// The [Engine] drives a small login state machine:
//
//	Start -> CredentialsChecked -> Authenticated
//	                            -> ChallengeIssued -> (VerifyTwoFA) -> Authenticated
//
// Credentials, revoked tokens and pending 2FA challenges live behind the
// [UserStore], [BannedTokenStore] and [TwoFACodeStore] contracts. The
// stores/memory, stores/postgres and stores/redis packages provide
// implementations; [Builder] wires them together with a [Notifier].
//
// # Error classes
//
// Every Engine method returns one of the sentinels in errors.go, possibly
// wrapped. Validation failures ([ErrInvalidCredentials]) are kept apart from
// domain rejections ([ErrIncorrectCredentials], [ErrUserAlreadyExists],
// [ErrInvalidToken], [ErrMissingToken]) and from backend failures
// ([ErrUnexpected]). Store error text never leaves the Engine unwrapped;
// backend causes are logged through zap and only the sentinel is meant for
// callers.
//
// Engine methods are safe for concurrent use once [Builder.Build] returns.
package authservice
