package models

// LoginForm carries login credentials. Username may hold a username or an email.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SignupForm carries the fields needed to register a new account.
type SignupForm struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	DisplayName     string `json:"displayName" form:"displayName"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// ImageInput is an uploaded image reference. Only the name is ever used.
type ImageInput struct {
	Name string `json:"name"`
}

// PostForm carries the fields of a new post.
type PostForm struct {
	Images   []ImageInput `json:"images"`
	Caption  string       `json:"caption"`
	Location string       `json:"location,omitempty"`
}

// PostEdit carries the fields of a post that may change after creation. Nil
// fields are left as they are.
type PostEdit struct {
	Caption  *string `json:"caption,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Result is the outcome of a state operation that can fail validation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK is the successful Result.
func OK() Result { return Result{Success: true} }

// Fail returns a failed Result carrying msg.
func Fail(msg string) Result { return Result{Success: false, Message: msg} }
