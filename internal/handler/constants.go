package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"

	// RouteAuthRegister is the registration endpoint.
	RouteAuthRegister = "/auth/register"
	// RouteAuthVerify is the email verification endpoint.
	RouteAuthVerify = "/auth/verify"
	// RouteAuthLogin is the login endpoint.
	RouteAuthLogin = "/auth/login"
	// RouteAuthLogout is the logout endpoint.
	RouteAuthLogout = "/auth/logout"

	// RouteAdmin is the admin route prefix.
	RouteAdmin = "/admin"
	// RouteAccounts is the admin accounts listing route.
	RouteAccounts = "/accounts"
	// RouteAccountsBlock is the bulk block route.
	RouteAccountsBlock = "/accounts/block"
	// RouteAccountsUnblock is the bulk unblock route.
	RouteAccountsUnblock = "/accounts/unblock"
	// RouteAccountsDelete is the bulk delete route.
	RouteAccountsDelete = "/accounts/delete"
	// RouteAccountsPurge is the purge-unverified route.
	RouteAccountsPurge = "/accounts/purge-unverified"

	// RouteHealth is the health check endpoint.
	RouteHealth = "/healthz"
	// RouteHealthReady is the readiness endpoint.
	RouteHealthReady = "/healthz/ready"
)
