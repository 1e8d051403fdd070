package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"armybuilder/internal/dataset"
	"armybuilder/internal/editor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// session wraps one editor and is its sink: submitted drafts are validated
// and written to the storage.
type session struct {
	mu       sync.Mutex
	ed       *editor.Editor
	army     string
	version  int64 // version of the edited record, 0 for a new unit
	storage  *Storage
	lastUsed time.Time
}

func (s *session) Submit(ctx context.Context, sub editor.Submission) error {
	exclude := ""
	if !sub.IsNew {
		exclude = sub.Record.ID
	}
	if errs := ValidateUnit(s.storage, s.army, sub.Category, sub.Record, sub.Invalid, exclude); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	if sub.IsNew {
		_, err := s.storage.Create(ctx, s.army, sub.Category, sub.Record)
		return err
	}
	rec, err := s.storage.Update(ctx, s.army, sub.Category, sub.Record.ID, sub.Record, s.version, true)
	if err != nil {
		return err
	}
	s.version = rec.Version
	return nil
}

func (s *session) Delete(ctx context.Context, r editor.DeleteRequest) error {
	if r.ID == "" {
		return ErrRecordNotFound
	}
	_, err := s.storage.Delete(ctx, s.army, r.Category, r.ID)
	return err
}

// target points the editor at unitID (or at a new unit when empty).
func (s *session) target(unitID string) (bool, error) {
	if unitID == "" {
		s.version = 0
		return s.ed.Retarget(nil), nil
	}
	rec, ok := s.storage.Get(s.army, s.ed.Category(), unitID)
	if !ok {
		return false, ErrRecordNotFound
	}
	s.version = rec.Version
	return s.ed.Retarget(&rec.Unit), nil
}

type sessionView struct {
	Session  string           `json:"session"`
	Army     string           `json:"army"`
	Category dataset.Category `json:"category"`
	IsNew    bool             `json:"is_new"`
	Version  int64            `json:"version,omitempty"`
	Draft    dataset.Unit     `json:"draft"`
	Invalid  []string         `json:"invalid"`
	Editable []string         `json:"editable"`
}

func (s *session) view() sessionView {
	return sessionView{
		Session:  s.ed.Scope(),
		Army:     s.army,
		Category: s.ed.Category(),
		IsNew:    s.ed.IsNew(),
		Version:  s.version,
		Draft:    s.ed.Draft(),
		Invalid:  s.ed.Invalid(),
		Editable: s.ed.Editable(),
	}
}

// Sessions holds the open editor sessions by scope.
type Sessions struct {
	mu    sync.Mutex
	items map[string]*session
	TTL   time.Duration
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{items: make(map[string]*session), TTL: ttl}
}

func (ss *Sessions) add(s *session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s.lastUsed = time.Now()
	ss.items[s.ed.Scope()] = s
}

func (ss *Sessions) get(id string) (*session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.items[id]
	if ok {
		s.lastUsed = time.Now()
	}
	return s, ok
}

func (ss *Sessions) remove(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.items[id]
	delete(ss.items, id)
	return ok
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.items)
}

// Sweep drops sessions idle for longer than TTL and returns how many.
func (ss *Sessions) Sweep(now time.Time) int {
	if ss.TTL <= 0 {
		return 0
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for id, s := range ss.items {
		if now.Sub(s.lastUsed) > ss.TTL {
			delete(ss.items, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (ss *Sessions) Run(ctx context.Context, interval time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := ss.Sweep(now); n > 0 {
				log.Info("editor sessions expired", zap.Int("count", n))
			}
		}
	}
}

// errResponded marks a handler step that already wrote its response.
var errResponded = errors.New("response written")

type openSessionReq struct {
	UnitID string `json:"unit_id"`
}

// POST /api/editor/:army/:category
func OpenSessionHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		var req openSessionReq
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}

		s := &session{army: army, storage: srv.Storage}
		var existing *dataset.Unit
		if req.UnitID != "" {
			rec, ok := srv.Storage.Get(army, cat, req.UnitID)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
				return
			}
			existing = &rec.Unit
			s.version = rec.Version
		}
		s.ed = editor.New(cat, existing, s)
		srv.Sessions.add(s)
		srv.Metrics.editorOp("open", "ok")
		c.JSON(http.StatusCreated, s.view())
	}
}

// GET /api/editor/sessions/:session
func GetSessionHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "get", func(c *gin.Context, s *session) error { return nil })
}

// DELETE /api/editor/sessions/:session
func CloseSessionHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !srv.Sessions.remove(c.Param("session")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// withSession locks the addressed session around fn and answers with the
// session view unless fn already responded.
func withSession(srv *Server, op string, fn func(c *gin.Context, s *session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := srv.Sessions.get(c.Param("session"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := fn(c, s); err != nil {
			srv.Metrics.editorOp(op, "error")
			if !errors.Is(err, errResponded) {
				writeEditorError(c, err)
			}
			return
		}
		srv.Metrics.editorOp(op, "ok")
		if !c.Writer.Written() {
			c.JSON(http.StatusOK, s.view())
		}
	}
}

type fieldReq struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

type magicToggleReq struct {
	Type  string `json:"type" binding:"required"`
	On    *bool  `json:"on"`
	Index *int   `json:"index"`
}

type magicPointsReq struct {
	Value any  `json:"value"`
	Index *int `json:"index"`
}

func bindOrRespond(c *gin.Context, dst any) error {
	if !bindJSON(c, dst) {
		return errResponded
	}
	return nil
}

func pathIndex(c *gin.Context) (editor.Collection, int, error) {
	col, ok := editor.ParseCollection(c.Param("collection"))
	if !ok {
		return "", 0, editor.ErrUnknownCollection
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return "", 0, editor.ErrNoEntry
	}
	return col, idx, nil
}

func magicScope(index *int) int {
	if index == nil {
		return editor.UnitLevel
	}
	return *index
}

// POST /api/editor/sessions/:session/target
func SessionTargetHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "target", func(c *gin.Context, s *session) error {
		var req openSessionReq
		if c.Request.ContentLength != 0 {
			if err := bindOrRespond(c, &req); err != nil {
				return err
			}
		}
		_, err := s.target(req.UnitID)
		return err
	})
}

// POST /api/editor/sessions/:session/field
func SessionFieldHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "field", func(c *gin.Context, s *session) error {
		var req fieldReq
		if err := bindOrRespond(c, &req); err != nil {
			return err
		}
		return s.ed.SetField(req.Field, rawValue(req.Value))
	})
}

// POST /api/editor/sessions/:session/blur
func SessionBlurHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "blur", func(c *gin.Context, s *session) error {
		s.ed.BlurName()
		return nil
	})
}

// POST /api/editor/sessions/:session/entries/:collection
func SessionAppendHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "append", func(c *gin.Context, s *session) error {
		col, ok := editor.ParseCollection(c.Param("collection"))
		if !ok {
			return editor.ErrUnknownCollection
		}
		return s.ed.Append(col)
	})
}

// POST /api/editor/sessions/:session/entries/:collection/:index/field
func SessionEntryFieldHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "entry_field", func(c *gin.Context, s *session) error {
		col, idx, err := pathIndex(c)
		if err != nil {
			return err
		}
		var req fieldReq
		if err := bindOrRespond(c, &req); err != nil {
			return err
		}
		return s.ed.SetEntryField(col, idx, req.Field, rawValue(req.Value))
	})
}

// POST /api/editor/sessions/:session/entries/:collection/:index/blur
func SessionEntryBlurHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "entry_blur", func(c *gin.Context, s *session) error {
		col, idx, err := pathIndex(c)
		if err != nil {
			return err
		}
		return s.ed.BlurEntryName(col, idx)
	})
}

// POST /api/editor/sessions/:session/magic/toggle
func SessionMagicToggleHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "magic_toggle", func(c *gin.Context, s *session) error {
		var req magicToggleReq
		if err := bindOrRespond(c, &req); err != nil {
			return err
		}
		if req.On == nil {
			return editor.ErrNotBool
		}
		return s.ed.ToggleMagic(magicScope(req.Index), req.Type, *req.On)
	})
}

// POST /api/editor/sessions/:session/magic/points
func SessionMagicPointsHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "magic_points", func(c *gin.Context, s *session) error {
		var req magicPointsReq
		if err := bindOrRespond(c, &req); err != nil {
			return err
		}
		return s.ed.SetMagicPoints(magicScope(req.Index), rawValue(req.Value))
	})
}

// POST /api/editor/sessions/:session/submit
func SessionSubmitHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "submit", func(c *gin.Context, s *session) error {
		sub, err := s.ed.Submit(c.Request.Context())
		if err != nil {
			return err
		}
		srv.Metrics.write("editor_submit", s.army)
		srv.Log.Info("unit submitted", zap.String("army", s.army), zap.String("category", string(sub.Category)),
			zap.String("id", sub.Record.ID), zap.Bool("new", sub.IsNew))
		c.JSON(http.StatusOK, gin.H{"submission": sub, "session": s.view()})
		return nil
	})
}

// POST /api/editor/sessions/:session/delete
func SessionDeleteHandler(srv *Server) gin.HandlerFunc {
	return withSession(srv, "delete", func(c *gin.Context, s *session) error {
		req, err := s.ed.Delete(c.Request.Context())
		if err != nil {
			return err
		}
		srv.Metrics.write("editor_delete", s.army)
		c.JSON(http.StatusOK, gin.H{"deleted": req, "session": s.view()})
		return nil
	})
}

func writeEditorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrUnknownField, "field", err.Error())}})
	case errors.Is(err, editor.ErrReadOnlyField):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrReadOnly, "field", err.Error())}})
	case errors.Is(err, editor.ErrFieldUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrFieldUnavailable, "field", err.Error())}})
	case errors.Is(err, editor.ErrUnknownCollection):
		c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "collection", err.Error())}})
	case errors.Is(err, editor.ErrNoEntry):
		c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "index", err.Error())}})
	case errors.Is(err, editor.ErrUnknownMagicType):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrEnumInvalid, "type", err.Error())}})
	case errors.Is(err, editor.ErrNotBool):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrTypeMismatch, "value", err.Error())}})
	default:
		writeStoreError(c, err)
	}
}
