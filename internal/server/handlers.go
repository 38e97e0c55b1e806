package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/agenthands/platformid/internal/identity"
)

type ResolveRequest struct {
	Signal string `json:"signal" binding:"required"`
}

type ResolveResponse struct {
	Found          bool            `json:"found"`
	Username       string          `json:"username,omitempty"`
	DisplayPayload json.RawMessage `json:"displayPayload,omitempty"`
}

type CreateUserRequest struct {
	Username       string          `json:"username" binding:"required"`
	Signal         string          `json:"signal" binding:"required"`
	DisplayPayload json.RawMessage `json:"displayPayload" binding:"required"`
	JoinedAt       int64           `json:"joinedAtUnixTime" binding:"required"`
}

type UpdateUserRequest struct {
	Signal         string          `json:"signal" binding:"required"`
	DisplayPayload json.RawMessage `json:"displayPayload" binding:"required"`
}

type CreateLinkedRequest struct {
	Signal  string          `json:"signal" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (s *Server) Resolve(c *gin.Context) {
	var req ResolveRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.Service.Resolve(c.Request.Context(), req.Signal)
	if err != nil {
		s.fail(c, "resolve", err)
		return
	}
	if !res.Found {
		c.JSON(http.StatusOK, ResolveResponse{Found: false})
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{
		Found:          true,
		Username:       res.Record.Username,
		DisplayPayload: res.Record.DisplayPayload,
	})
}

func (s *Server) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !s.bind(c, &req) {
		return
	}

	rec, err := s.Service.Create(c.Request.Context(), identity.NewRecord{
		Username:       req.Username,
		Signal:         req.Signal,
		DisplayPayload: req.DisplayPayload,
		JoinedAt:       req.JoinedAt,
	})
	if err != nil {
		s.fail(c, "create user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "username": rec.Username})
}

func (s *Server) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !s.bind(c, &req) {
		return
	}

	rec, err := s.Service.UpdateDisplay(c.Request.Context(), req.Signal, req.DisplayPayload)
	if err != nil {
		s.fail(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"username":       rec.Username,
		"displayPayload": rec.DisplayPayload,
	})
}

func (s *Server) CreateLinked(c *gin.Context) {
	var req CreateLinkedRequest
	if !s.bind(c, &req) {
		return
	}

	linked, err := s.Service.CreateLinked(c.Request.Context(), req.Signal, req.Payload)
	if err != nil {
		s.fail(c, "create linked record", err)
		return
	}
	c.JSON(http.StatusOK, linked)
}

// bind decodes the request body into obj, unwrapping an optional
// {"data": {...}} envelope. It writes the 400 response itself.
func (s *Server) bind(c *gin.Context, obj any) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	body = unwrapEnvelope(body)

	if err := binding.JSON.BindBody(body, obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields", "fields": fields})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	return true
}

func unwrapEnvelope(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []byte("{}")
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if d := bytes.TrimSpace(env.Data); len(d) > 0 && d[0] == '{' {
		return d
	}
	return trimmed
}
