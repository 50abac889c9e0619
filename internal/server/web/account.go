package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/services"
)

type registerForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type nicknameForm struct {
	Username string `form:"username"`
}

type passwordForm struct {
	Password string `form:"password"`
}

func (s *Server) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.deps.Accounts.SessionValidity().Seconds()), "/", "", s.deps.CookieSecure, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.deps.CookieSecure, true)
}

func (s *Server) register(c *gin.Context) {
	if _, anon := identityOf(c).(identity.Anonymous); !anon {
		seeOther(c, pageAccount)
		return
	}

	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	_, err := s.deps.Accounts.Register(c.Request.Context(), services.RegisterInput{
		Nickname: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		seeOtherWithError(c, pageRegister, err)
		return
	}
	seeOther(c, pageConfirmation)
}

func (s *Server) confirm(c *gin.Context) {
	token, err := s.deps.Accounts.Confirm(c.Request.Context(), c.Param("code"))
	if err != nil {
		seeOtherWithError(c, pageConfirmation, err)
		return
	}
	s.setSession(c, token)
	seeOther(c, pageAccount)
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	token, err := s.deps.Accounts.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		seeOtherWithError(c, pageLogin, err)
		return
	}
	s.setSession(c, token)
	seeOther(c, pageHome)
}

func (s *Server) logout(c *gin.Context) {
	s.deps.Accounts.Logout(c.Request.Context(), claimsOf(c))
	s.clearSession(c)
	seeOther(c, pageHome)
}

func (s *Server) changeNickname(c *gin.Context) {
	var form nicknameForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := s.deps.Accounts.ChangeNickname(c.Request.Context(), identityOf(c), form.Username); err != nil {
		if !redirectUnauthorized(c, err) {
			seeOtherWithError(c, pageSettings, err)
		}
		return
	}
	seeOther(c, pageSettings)
}

func (s *Server) changePassword(c *gin.Context) {
	var form passwordForm
	if err := c.ShouldBind(&form); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	token, err := s.deps.Accounts.ChangePassword(c.Request.Context(), identityOf(c), form.Password)
	if err != nil {
		if !redirectUnauthorized(c, err) {
			seeOtherWithError(c, pageSettings, err)
		}
		return
	}
	s.setSession(c, token)
	seeOther(c, pageSettings)
}

func (s *Server) reseedAvatar(c *gin.Context) {
	if _, err := s.deps.Accounts.ReseedAvatar(c.Request.Context(), identityOf(c)); err != nil {
		if !redirectUnauthorized(c, err) {
			seeOtherWithError(c, pageSettings, err)
		}
		return
	}
	seeOther(c, pageSettings)
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.deps.Accounts.DeleteAccount(c.Request.Context(), identityOf(c), claimsOf(c)); err != nil {
		if !redirectUnauthorized(c, err) {
			seeOtherWithError(c, pageSettings, err)
		}
		return
	}
	s.clearSession(c)
	seeOther(c, pageDeleted)
}
