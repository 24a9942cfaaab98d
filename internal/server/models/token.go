package models

// TokenKind selects which single-use token family a token belongs to.
type TokenKind string

const (
	TokenKindPasswordReset TokenKind = "password_reset"
	TokenKindEmailVerify   TokenKind = "email_verify"
)
