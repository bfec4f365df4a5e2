// Package session keeps the logged-in identity and pending flash messages in
// the per-client gin session.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gorillasessions "github.com/gorilla/sessions"
)

const (
	loginUser  = "LOGIN_USER"
	flashQueue = "FLASH_QUEUE"
)

func init() {
	gob.Register(FlashQueue{})
}

// SetLoginUser binds the session to the user with the given id.
func SetLoginUser(c *gin.Context, userId string) error {
	s := sessions.Default(c)
	s.Set(loginUser, userId)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

// GetLoginUserId returns the id of the logged-in user or "" when anonymous.
func GetLoginUserId(c *gin.Context) string {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if id, ok := obj.(string); ok {
			return id
		}
	}
	return ""
}

// IsLogin reports whether the session carries an authenticated identity.
func IsLogin(c *gin.Context) bool {
	return GetLoginUserId(c) != ""
}

// ClearLoginUser drops the identity but keeps the session, so flashes queued
// afterwards still reach the next page.
func ClearLoginUser(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(loginUser)
	return s.Save()
}

// renewer is implemented by stores that can move a session to a new id.
type renewer interface {
	Renew(r *http.Request, session *gorillasessions.Session) error
}

// Renew drops every value except pending flashes and, when the store keeps
// sessions server-side, moves the session to a new id.
func Renew(c *gin.Context) error {
	s := sessions.Default(c)
	flashes := loadFlashes(s)
	s.Clear()

	if inner, ok := s.(interface{ Session() *gorillasessions.Session }); ok {
		gs := inner.Session()
		if store, ok := gs.Store().(renewer); ok {
			if err := store.Renew(c.Request, gs); err != nil {
				return err
			}
		}
	}

	if flashes.Len() > 0 {
		s.Set(flashQueue, flashes)
	}
	return s.Save()
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, kind FlashKind, text string) error {
	s := sessions.Default(c)
	q := loadFlashes(s)
	q.Push(kind, text)
	s.Set(flashQueue, q)
	return s.Save()
}

// DrainFlashes returns and removes every pending flash message.
func DrainFlashes(c *gin.Context) (map[FlashKind][]string, error) {
	s := sessions.Default(c)
	q := loadFlashes(s)
	if q.Len() == 0 {
		return q.DrainAll(), nil
	}
	out := q.DrainAll()
	s.Delete(flashQueue)
	return out, s.Save()
}

func loadFlashes(s sessions.Session) FlashQueue {
	if obj := s.Get(flashQueue); obj != nil {
		if q, ok := obj.(FlashQueue); ok {
			return q
		}
	}
	return FlashQueue{}
}
