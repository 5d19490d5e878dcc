// Package routes is the URL table shared by the router, handlers and templates.
package routes

const (
	Home   = "/"
	Join   = "/join"
	Login  = "/login"
	Logout = "/logout"
	Me     = "/me"

	Users          = "/users"
	UserDetailPath = Users + "/{id}"
	EditProfile    = Users + "/edit-profile"
	ChangePassword = Users + "/change-password"

	GitHub           = "/auth/github"
	GitHubCallback   = GitHub + "/callback"
	Facebook         = "/auth/facebook"
	FacebookCallback = Facebook + "/callback"

	Uploads = "/uploads/"
)

// UserDetail returns the profile page of the user with the given id.
func UserDetail(id string) string {
	return Users + "/" + id
}
