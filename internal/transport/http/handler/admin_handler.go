package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-admin/internal/core/auth"
	"user-admin/internal/proxy"
	"user-admin/internal/service"
	"user-admin/internal/transport/http/middleware"
	resp "user-admin/internal/transport/http/response"
)

type Options struct {
	Credentials  auth.Credentials
	Sessions     *auth.JWTer
	CookieName   string
	CookieSecure bool
	UploadDir    string
	UploadMax    int64
	Proxy        *proxy.Client
	Log          *zap.Logger
}

type AdminHandler struct {
	svc          *service.UserService
	creds        auth.Credentials
	sessions     *auth.JWTer
	cookieName   string
	cookieSecure bool
	uploadDir    string
	uploadMax    int64
	proxy        *proxy.Client
	log          *zap.Logger
}

func NewAdminHandler(svc *service.UserService, o Options) *AdminHandler {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return &AdminHandler{
		svc:          svc,
		creds:        o.Credentials,
		sessions:     o.Sessions,
		cookieName:   o.CookieName,
		cookieSecure: o.CookieSecure,
		uploadDir:    o.UploadDir,
		uploadMax:    o.UploadMax,
		proxy:        o.Proxy,
		log:          o.Log,
	}
}

func (h *AdminHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": 1})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Abort(c, resp.CodeBadRequest, "username and password are required")
		return
	}
	if err := h.creds.Verify(in.Username, in.Password); err != nil {
		h.log.Warn("login failed", zap.String("username", in.Username), zap.String("ip", c.ClientIP()))
		resp.Abort(c, resp.CodeUnauthorized, err.Error())
		return
	}
	token, exp, err := h.sessions.Issue(in.Username)
	if err != nil {
		h.fail(c, Internal("could not start session", err))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.sessions.TTL.Seconds()), "/", "", h.cookieSecure, true)
	h.log.Info("login", zap.String("username", in.Username), zap.String("ip", c.ClientIP()))
	resp.WriteOK(c, gin.H{"username": in.Username, "token": token, "expiresAt": exp})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	resp.WriteOK(c, nil)
}

func (h *AdminHandler) Me(c *gin.Context) {
	resp.WriteOK(c, gin.H{"username": c.GetString(middleware.KeyAdmin)})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, d)
}

func (h *AdminHandler) Proxy(c *gin.Context) {
	res, err := h.proxy.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		h.log.Warn("proxy request failed", zap.String("url", c.Query("url")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Upstream-Status", strconv.Itoa(res.Status))
	if res.JSON {
		c.Data(http.StatusOK, "application/json; charset=utf-8", res.Body)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", res.Body)
}
