package api

import "github.com/golang-jwt/jwt/v5"

// validTokenShape reports whether token parses as a three-segment JWT.
// The signature is NOT checked; the server is the authority on validity.
// A token that fails this check was corrupted in storage and is discarded
// before it can be sent.
func validTokenShape(token string) bool {
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	return err == nil
}
