package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"seed password", "Dajtovon-Seed-1", ""},
		{"twelve characters", "Tatry-Hike-9", ""},
		{"128 characters", "K" + strings.Repeat("o", 125) + "5#", ""},
		{"non ascii letters", "Štrbské-Pleso-2", ""},
		{"eleven characters", "Tatry-Hik-9", "at least 12 characters"},
		{"129 characters", "K" + strings.Repeat("o", 126) + "5#", "must not exceed 128"},
		{"lowercase only letters", "bratislava-2024", "uppercase"},
		{"uppercase only letters", "BRATISLAVA-2024", "lowercase"},
		{"no digit", "Bratislava-Hrad", "digit"},
		{"no special character", "Bratislava2024", "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantMsg  string
	}{
		{"letters and digits", "janko42", ""},
		{"inner separators", "horal_z-tatier", ""},
		{"thirty characters", strings.Repeat("m", 30), ""},
		{"two characters", "jo", "at least 3"},
		{"thirty one characters", strings.Repeat("m", 31), "must not exceed 30"},
		{"at sign", "janko@sk", "letters, numbers"},
		{"space", "janko hrasko", "letters, numbers"},
		{"leading hyphen", "-janko", "cannot start or end"},
		{"trailing underscore", "janko_", "cannot start or end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	longest := strings.Repeat("j", 64) + "@" + strings.Repeat("d", 185) + ".sk"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain", "janko@dajtovon.sk", false},
		{"subdomain and plus", "janko+news@mail.dajtovon.sk", false},
		{"253 characters", longest, false},
		{"255 characters", longest + "kk", true},
		{"no at sign", "janko.dajtovon.sk", true},
		{"no domain", "janko@", true},
		{"two at signs", "janko@@dajtovon.sk", true},
		{"one letter tld", "janko@dajtovon.s", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
