package utils

import (
	"testing"
	"time"

	"reservo/config"
	"reservo/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	tok, err := GenerateToken("prov-1", models.RoleProvider, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	actor, err := ParseToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if actor.ID != "prov-1" || actor.Role != models.RoleProvider {
		t.Errorf("actor %+v", actor)
	}

	config.AppConfig.JWTSecret = "rotated"
	if _, err := ParseToken(tok); err == nil {
		t.Error("token accepted under a different secret")
	}
}

func TestParseTokenRejects(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	sign := func(c Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, c).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"system role": sign(Claims{Role: models.RoleSystem, RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ExpiresAt: exp}}, jwt.SigningMethodHS256),
		"no subject":  sign(Claims{Role: models.RoleClient, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}, jwt.SigningMethodHS256),
		"no expiry":   sign(Claims{Role: models.RoleClient, RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}}, jwt.SigningMethodHS256),
		"other alg":   sign(Claims{Role: models.RoleClient, RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ExpiresAt: exp}}, jwt.SigningMethodHS512),
	}
	for name, tok := range cases {
		if _, err := ParseToken(tok); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}

	config.AppConfig.JWTSecret = ""
	if _, err := GenerateToken("x", models.RoleClient, time.Hour); err == nil {
		t.Error("signed without a secret")
	}
}
