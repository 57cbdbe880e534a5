package inputval

import (
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"karim@example.com", true},
		{"karim.hossain@example.com", true},
		{"karim+rent@example.com", true},
		{"user@mail.example.com.bd", true},
		{"a@b.c", true},

		{"", false},
		{"   ", false},
		{"karim", false},
		{"@example.com", false},
		{"karim@", false},
		{"karim example.com", false},
		{"karim@@example.com", false},
		{"Karim <karim@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/maid.jpg", true},
		{"http://localhost:8080/assets/shop.png", true},
		{"", false},
		{"ftp://example.com/file", false},
		{"/assets/shop.png", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{" 507f1f77bcf86cd799439011 ", true},
		{"", false},
		{"507f1f77", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzz", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

type accountInput struct {
	Name  string `json:"name" validate:"required,max=10" label:"Name"`
	Email string `json:"email" validate:"required,emailaddr" label:"Email"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   accountInput
		wantMsg string
	}{
		{"valid", accountInput{Name: "Karim", Email: "karim@example.com"}, ""},
		{"missing name", accountInput{Email: "karim@example.com"}, "Name is required."},
		{"long name", accountInput{Name: "Abdul Karim Hossain", Email: "karim@example.com"}, "Name must be at most 10 characters."},
		{"bad email", accountInput{Name: "Karim", Email: "karim"}, "A valid email address is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if tt.wantMsg == "" {
				if res.HasErrors() {
					t.Fatalf("Validate() unexpected error: %s", res.First())
				}
				return
			}
			if got := res.First(); got != tt.wantMsg {
				t.Errorf("Validate().First() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type imageInput struct {
		Image string `json:"image" validate:"required,httpurl" label:"Image"`
	}
	if res := Validate(imageInput{Image: "https://cdn.example.com/a.jpg"}); res.HasErrors() {
		t.Errorf("httpurl should accept https, got %s", res.First())
	}
	if res := Validate(imageInput{Image: "ftp://example.com/a.jpg"}); !res.HasErrors() {
		t.Error("httpurl should reject ftp")
	}

	type idInput struct {
		ID string `json:"id" validate:"required,objectid" label:"Property ID"`
	}
	if res := Validate(idInput{ID: "507f1f77bcf86cd799439011"}); res.HasErrors() {
		t.Errorf("objectid should accept hex, got %s", res.First())
	}
	res := Validate(idInput{ID: "nope"})
	if res.First() != "Property ID is not a valid ID." {
		t.Errorf("objectid message = %q", res.First())
	}
}

func TestValidate_OneOfRule(t *testing.T) {
	type shopInput struct {
		Category string `json:"category" validate:"oneof=grocery pharmacy" label:"Category"`
	}
	if res := Validate(shopInput{Category: "grocery"}); res.HasErrors() {
		t.Errorf("oneof=grocery should pass, got %s", res.First())
	}
	res := Validate(shopInput{Category: "casino"})
	if res.First() != "Category must be one of: grocery, pharmacy." {
		t.Errorf("oneof message = %q", res.First())
	}
}

func TestValidate_PointerAndNonStruct(t *testing.T) {
	if res := Validate(&accountInput{Name: "Karim", Email: "karim@example.com"}); res.HasErrors() {
		t.Errorf("pointer struct should validate, got %s", res.First())
	}
	if res := Validate("not a struct"); res == nil {
		t.Error("non-struct should return a non-nil result")
	}
}

func TestValidate_NoLabel(t *testing.T) {
	type input struct {
		Name string `validate:"required"`
	}
	if got := Validate(input{}).First(); got != "Name is required." {
		t.Errorf("message = %q, want field name fallback", got)
	}
}

func TestResult(t *testing.T) {
	r := &Result{}
	if r.HasErrors() || r.First() != "" || r.All() != "" {
		t.Error("empty result should report nothing")
	}

	r.Errors = []FieldError{
		{Field: "name", Label: "Name", Message: "Name is required."},
		{Field: "email", Label: "Email", Message: "A valid email address is required."},
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false with errors")
	}
	if r.First() != "Name is required." {
		t.Errorf("First() = %q", r.First())
	}
	if want := "Name is required.; A valid email address is required."; r.All() != want {
		t.Errorf("All() = %q, want %q", r.All(), want)
	}
}
