package handler

// RegisterResponse is the body returned by POST /register.
type RegisterResponse struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
}

// VerifyResponse is the body returned by POST /verify.
type VerifyResponse struct {
	Match      bool    `json:"match"`
	Similarity float64 `json:"similarity"`
	Token      string  `json:"token,omitempty"`
}
