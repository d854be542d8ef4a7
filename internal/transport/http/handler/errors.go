package handler

const (
	errInternalServer     = "Internal server error"
	errServiceUnavailable = "Service temporarily unavailable, please retry"

	errInvalidSignup = "Invalid sign-up details provided."
	errInvalidLogin  = "Invalid login details provided."
	errTokenRequired = "A verification token is required."

	errSignupRateLimited = "Too many sign-up attempts. Please try again later."
	errLoginRateLimited  = "Too many sign-in attempts. Please try again shortly."
	errVerifyRateLimited = "Too many verification attempts. Please try again soon."

	errEmailTaken         = "An account with this email already exists. Please sign in instead."
	errInvalidCredentials = "Invalid email or password."
	errEmailUnverified    = "Please verify your email before signing in."

	errAccountNotFound = "Account not found"
	errInvalidAccount  = "Invalid account details provided."

	errPromptNotFound = "Prompt not found"
	errInvalidQuery   = "Invalid query parameter"
)

const (
	msgAccountCreated = "Account created successfully. Please verify your email to continue."
	msgTokenReissued  = "An account with this email is pending verification. A fresh verification link has been generated."
)
