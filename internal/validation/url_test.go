package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http localhost", "http://localhost:3000", false},
		{"https with path", "https://cms.example.com/api", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"shell injection", "http://localhost;rm -rf /", true},
		{"backticks", "http://localhost/`id`", true},
		{"spaces", "http://local host", true},
		{"no host", "http://", true},
		{"relative", "/api/posts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	allowed := []string{"localhost:8080", "https://blog.example.com"}

	assert.NoError(t, ValidateOrigin("http://localhost:8080", allowed))
	assert.NoError(t, ValidateOrigin("https://blog.example.com", allowed))
	assert.Error(t, ValidateOrigin("", allowed))
	assert.Error(t, ValidateOrigin("http://evil.com", allowed))
	assert.Error(t, ValidateOrigin("ftp://localhost:8080", allowed))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath("./content"))
	assert.NoError(t, ValidatePath("/srv/blog/posts"))
	assert.NoError(t, ValidatePath("posts..old"))
	assert.Error(t, ValidatePath(""))
	assert.Error(t, ValidatePath("../secrets"))
	assert.Error(t, ValidatePath("content/../../etc"))
	assert.Error(t, ValidatePath("content;rm"))
}
