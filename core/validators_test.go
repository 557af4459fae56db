package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateErrors(t *testing.T) {
	type form struct {
		Email    string `json:"email" validate:"required,email"`
		Nickname string `json:"nickname" validate:"omitempty,alphanum_"`
	}

	tests := []struct {
		name string
		form form
		want map[string]string
	}{
		{name: "valid", form: form{Email: "a@b.com", Nickname: "lol_1"}},
		{
			name: "missing email",
			form: form{},
			want: map[string]string{"email": "this field is required"},
		},
		{
			name: "invalid nickname",
			form: form{Email: "a@b.com", Nickname: "l-o-l"},
			want: map[string]string{"nickname": "only alphanumeric characters and underscores are allowed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, TranslateErrors(err))
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Lol", CleanString("  Lol \n"))
	assert.Equal(t, "lol", CleanString("  Lol ", true))
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty())
}
