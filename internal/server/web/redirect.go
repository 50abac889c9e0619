package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/common"
)

// Page paths the handlers redirect to.
const (
	pageHome         = "/"
	pageLogin        = "/entrar"
	pageRegister     = "/registrar"
	pageConfirmation = "/confirmação"
	pageAccount      = "/minha-conta"
	pageSettings     = "/configurações"
	pageDeleted      = "/conta-deletada"
	pageNewListing   = "/novo"
)

// ErrorParam is the query parameter carrying an error code.
const ErrorParam = "erro"

var errorCodes = []struct {
	err  error
	code string
}{
	{common.ErrNicknameInUse, "apelido-em-uso"},
	{common.ErrEmailInUse, "email-em-uso"},
	{common.ErrInvalidNickname, "apelido-invalido"},
	{common.ErrInvalidEmail, "email-invalido"},
	{common.ErrPasswordTooShort, "senha-curta"},
	{common.ErrPasswordWeak, "senha-fraca"},
	{common.ErrCodeInvalid, "codigo-invalido"},
	{common.ErrInvalidCredentials, "credenciais-invalidas"},
	{common.ErrInvalidListingType, "tipo-invalido"},
	{common.ErrInvalidCampus, "campus-invalido"},
	{common.ErrTitleRequired, "titulo-obrigatorio"},
	{common.ErrNoAttachments, "sem-imagens"},
}

// ErrorCode is the stable query-string token for err.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "erro-interno"
}

func pageURL(path, errCode string) string {
	u := url.URL{Path: path}
	if errCode != "" {
		u.RawQuery = url.Values{ErrorParam: {errCode}}.Encode()
	}
	return u.String()
}

// seeOther answers a form post.
func seeOther(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, pageURL(path, ""))
}

func seeOtherWithError(c *gin.Context, path string, err error) {
	c.Redirect(http.StatusSeeOther, pageURL(path, ErrorCode(err)))
}

// redirectUnauthorized sends anonymous users to log in and pending users to
// the confirmation page. It reports false for other errors.
func redirectUnauthorized(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, common.ErrPendingConfirmation):
		seeOther(c, pageConfirmation)
	case errors.Is(err, common.ErrNotLoggedIn):
		seeOther(c, pageLogin)
	default:
		return false
	}
	return true
}
