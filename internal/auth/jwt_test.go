package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("faculty-1", RoleFaculty, "classattend", "key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		key     string
		issuer  string
		wantErr bool
	}{
		{name: "valid access token", token: pair.AccessToken, key: "key", issuer: "classattend"},
		{name: "valid refresh token", token: pair.RefreshToken, key: "key", issuer: "classattend"},
		{name: "wrong key", token: pair.AccessToken, key: "other", issuer: "classattend", wantErr: true},
		{name: "issuer mismatch", token: pair.AccessToken, key: "key", issuer: "elsewhere", wantErr: true},
		{name: "garbage", token: "nope", key: "key", issuer: "classattend", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := Parse(tt.token, tt.key, tt.issuer)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if claims.Subject != "faculty-1" || claims.Role != RoleFaculty {
					t.Errorf("claims = %+v", claims)
				}
			}
		})
	}
}

func TestParseExpired(t *testing.T) {
	pair, err := Issue("s1", RoleStudent, "classattend", "key", -time.Minute, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := Parse(pair.AccessToken, "key", "classattend"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}
