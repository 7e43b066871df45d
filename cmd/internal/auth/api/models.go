package authapi

import "github.com/gltdhd/Spring-MVC-2/cmd/identity"

// GlobalLoginFail is the global error code for a credential mismatch.
const GlobalLoginFail = "loginFail"

type loginForm struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type homeResponse struct {
	Member *identity.Member `json:"member"`
}

type memberResponse struct {
	Member identity.Member `json:"member"`
}

// formErrorResponse mirrors a bound form with its field and global errors.
type formErrorResponse struct {
	Errors       map[string]string `json:"errors,omitempty"`
	GlobalErrors []string          `json:"globalErrors,omitempty"`
	Message      string            `json:"message,omitempty"`
	Form         any               `json:"form,omitempty"`
}

func loginFormErrors(f loginForm) map[string]string {
	errs := map[string]string{}
	if f.LoginID == "" {
		errs["loginId"] = "login id is required"
	}
	if f.Password == "" {
		errs["password"] = "password is required"
	}
	return errs
}
