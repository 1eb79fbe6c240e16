package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTokenService(t *testing.T) {
	Convey("Given a token service", t, func() {
		service := NewService("test-secret")

		Convey("GenerateToken issues a token pair", func() {
			info, err := service.GenerateToken("agent-1", jwt.MapClaims{"scope": "tasks"})
			So(err, ShouldBeNil)
			So(info.Token, ShouldNotBeEmpty)
			So(info.RefreshToken, ShouldNotBeEmpty)
			So(info.Subject, ShouldEqual, "agent-1")
		})

		Convey("Validate accepts an issued token", func() {
			info, err := service.GenerateToken("agent-1", nil)
			So(err, ShouldBeNil)
			So(service.Validate(info.Token), ShouldBeNil)
		})

		Convey("Validate rejects a token signed with another key", func() {
			other := NewService("other-secret")
			info, err := other.GenerateToken("agent-1", nil)
			So(err, ShouldBeNil)
			So(service.Validate(info.Token), ShouldNotBeNil)
		})

		Convey("Authorize matches a bearer header", func() {
			info, err := service.GenerateToken("agent-1", nil)
			So(err, ShouldBeNil)

			headers := map[string]string{"Authorization": "Bearer " + info.Token}
			get := func(name string) string { return headers[name] }

			So(service.Authorize(get), ShouldBeTrue)
			So(service.Authorize(func(string) string { return "" }), ShouldBeFalse)
		})

		Convey("RefreshToken issues a replacement for the same subject", func() {
			info, err := service.GenerateToken("agent-1", nil)
			So(err, ShouldBeNil)

			fresh, err := service.RefreshToken(info.RefreshToken)
			So(err, ShouldBeNil)
			So(fresh.Token, ShouldNotBeEmpty)
			So(fresh.Subject, ShouldEqual, "agent-1")
		})

		Convey("RefreshToken rejects unknown refresh tokens", func() {
			_, err := service.RefreshToken("not-a-refresh-token")
			So(err, ShouldNotBeNil)
		})

		Convey("RevokeToken forgets the pair", func() {
			info, err := service.GenerateToken("agent-1", nil)
			So(err, ShouldBeNil)

			So(service.RevokeToken(info.Token), ShouldBeNil)

			_, err = service.GetTokenInfo(info.Token)
			So(err, ShouldNotBeNil)

			_, err = service.RefreshToken(info.RefreshToken)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStaticCheckers(t *testing.T) {
	Convey("Given static checkers", t, func() {
		headers := map[string]string{}
		get := func(name string) string { return headers[name] }

		Convey("APIKeyAuth matches the X-API-Key header", func() {
			checker := APIKeyAuth{Key: "s3cret"}

			headers["X-API-Key"] = "s3cret"
			So(checker.Authorize(get), ShouldBeTrue)

			headers["X-API-Key"] = "wrong"
			So(checker.Authorize(get), ShouldBeFalse)
		})

		Convey("BearerAuth matches the Authorization header case-insensitively", func() {
			checker := BearerAuth{Token: "tok"}

			headers["Authorization"] = "bearer tok"
			So(checker.Authorize(get), ShouldBeTrue)

			headers["Authorization"] = "Bearer other"
			So(checker.Authorize(get), ShouldBeFalse)

			headers["Authorization"] = ""
			So(checker.Authorize(get), ShouldBeFalse)
		})
	})
}
