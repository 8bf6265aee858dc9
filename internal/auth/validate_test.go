package auth

import "testing"

func validReq() SignupRequest {
	return SignupRequest{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
	}
}

func TestValidateSignupAccepts(t *testing.T) {
	if msg := ValidateSignup(validReq()); msg != "" {
		t.Errorf("expected valid request, got %q", msg)
	}
}

func TestValidateSignupShortPassword(t *testing.T) {
	req := validReq()
	req.Password = "abcde" // length 5
	req.ConfirmPassword = "abcde"
	if msg := ValidateSignup(req); msg == "" {
		t.Error("password of length 5 must be rejected locally")
	}
}

func TestValidateSignupMismatchedConfirm(t *testing.T) {
	req := validReq()
	req.ConfirmPassword = "hunter23"
	if msg := ValidateSignup(req); msg == "" {
		t.Error("mismatched confirm password must be rejected locally")
	}
}

func TestValidateSignupBadEmail(t *testing.T) {
	for _, email := range []string{"", "not-an-email", "a@", "@b"} {
		req := validReq()
		req.Email = email
		if msg := ValidateSignup(req); msg == "" {
			t.Errorf("email %q should be rejected", email)
		}
	}
}

func TestValidateSignupMissingName(t *testing.T) {
	req := validReq()
	req.Name = "   "
	if msg := ValidateSignup(req); msg == "" {
		t.Error("blank name should be rejected")
	}
}
