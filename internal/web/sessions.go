package web

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"marketing-captain/internal/render"
	"marketing-captain/internal/wizard"
)

const maxDocumentBytes = 5 << 20

var errSessionNotFound = errors.New("session not found")

type sessionResponse struct {
	ID string `json:"id"`
	wizard.Snapshot
}

type stylesRequest struct {
	Persona  *string `json:"persona"`
	Strategy *string `json:"strategy"`
}

type exportRequest struct {
	Slot string `json:"slot"`
	Path string `json:"path"`
}

// lookup resolves :id or answers 404.
func (s *Server) lookup(c *gin.Context) (*wizard.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, apiError{Error: errSessionNotFound.Error()})
		return nil, false
	}
	return sess.Wizard, true
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	s.logger.Info("session created", "session_id", sess.ID)
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID})
}

func (s *Server) getSession(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}
	snap, err := wz.Snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: c.Param("id"), Snapshot: snap})
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("id")) {
		c.AbortWithStatusJSON(http.StatusNotFound, apiError{Error: errSessionNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// putFields stores all answers in the body or none of them.
func (s *Server) putFields(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}

	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}

	values := make(map[wizard.Field]string, len(body))
	for name, v := range body {
		f, err := wizard.ParseField(name)
		if err != nil {
			s.fail(c, err)
			return
		}
		values[f] = v
	}
	if err := wz.SetFields(values); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) putStyles(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}

	var body stylesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}

	styles, err := wz.UpdateStyles(func(st *wizard.Styles) {
		if body.Persona != nil {
			st.Persona = *body.Persona
		}
		if body.Strategy != nil {
			st.Strategy = *body.Strategy
		}
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, styles)
}

func (s *Server) putDocument(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}
	kind, err := wizard.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		s.fail(c, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apiError{Error: "document too large"})
		return
	}
	if err := wz.SetDocument(kind, string(data)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteDocument(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}
	kind, err := wizard.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := wz.ClearDocument(kind); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// runStep only starts the generation; progress arrives on the stream.
func (s *Server) runStep(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}
	step, err := wizard.ParseStep(c.Param("step"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := wz.RunStep(step); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"step": step.Key(), "state": wizard.StatePending})
}

func (s *Server) getSurface(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}
	slot, err := wizard.ParseSlot(c.Param("slot"))
	if err != nil {
		s.fail(c, err)
		return
	}
	text, err := wz.Surface(slot)
	if err != nil {
		s.fail(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "html") {
		out, err := render.HTML(text)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
		return
	}
	c.JSON(http.StatusOK, wizard.Update{Slot: slot, Text: text})
}

// export writes under the export directory only; directories in the
// requested path are dropped.
func (s *Server) export(c *gin.Context) {
	wz, ok := s.lookup(c)
	if !ok {
		return
	}

	var body exportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}
	slot, err := wizard.ParseSlot(body.Slot)
	if err != nil {
		s.fail(c, err)
		return
	}

	name := filepath.Base(strings.TrimSpace(body.Path))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		name = string(slot)
	}

	written, err := wz.Export(slot, filepath.Join(s.exportDir, name))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("surface exported", "session_id", c.Param("id"), "slot", slot, "path", written)
	c.JSON(http.StatusOK, gin.H{"path": written})
}
