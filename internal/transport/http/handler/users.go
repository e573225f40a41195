package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user-admin/internal/export"
	"user-admin/internal/userquery"
	resp "user-admin/internal/transport/http/response"
)

const maxBulkIDs = 1000

type userReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type bulkDeleteReq struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		resp.Abort(c, resp.CodeBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var p userquery.Params
	// all fields are strings, binding cannot fail on values
	_ = c.ShouldBindQuery(&p)
	res, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, res)
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var in userReq
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Abort(c, resp.CodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.svc.Create(c.Request.Context(), in.Name, in.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, u)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, u)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in userReq
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Abort(c, resp.CodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, in.Name, in.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, u)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, gin.H{"id": id})
}

func (h *AdminHandler) BulkDeleteUsers(c *gin.Context) {
	var in bulkDeleteReq
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Abort(c, resp.CodeBadRequest, "ids must be a non-empty list")
		return
	}
	if len(in.IDs) > maxBulkIDs {
		resp.Abort(c, resp.CodeBadRequest, "too many ids")
		return
	}
	n, err := h.svc.BulkDelete(c.Request.Context(), in.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, gin.H{"deleted": n})
}

func (h *AdminHandler) ExportUsers(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *AdminHandler) ArchiveUsers(c *gin.Context) {
	a, err := h.svc.Archive(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.WriteOK(c, a)
}
