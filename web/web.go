// Package web provides the nasweb HTTP server: routing, sessions, templates,
// static assets and the background job scheduler.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spu-nas/nasweb/config"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/common"
	"github.com/spu-nas/nasweb/util/metrics"
	"github.com/spu-nas/nasweb/util/random"
	"github.com/spu-nas/nasweb/web/cache"
	"github.com/spu-nas/nasweb/web/controller"
	"github.com/spu-nas/nasweb/web/job"
	"github.com/spu-nas/nasweb/web/locale"
	"github.com/spu-nas/nasweb/web/middleware"
	"github.com/spu-nas/nasweb/web/network"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

// sessionName is the cookie carrying the signed session id.
const sessionName = "nasweb"

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

// wrapAssetsFileInfo reports the process start as modification time so
// embedded assets get a usable Last-Modified header.
type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server is the nasweb web server with its controllers and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index *controller.IndexController
	users *controller.UsersController
	admin *controller.AdminController

	cron *cron.Cron
}

// NewServer creates a new web server instance.
func NewServer() *Server {
	return &Server{}
}

// getHtmlFiles lists the templates under the local web/html directory.
// Used only in debug mode so templates can be edited without rebuilding.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded templates. Each file is addressed by
// its base name, so base names must be unique across directories.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// newSessionStore builds the Redis-backed session store. Without a configured
// secret a random one is generated, which logs everyone out on restart.
func (s *Server) newSessionStore() (sessions.Store, error) {
	client := cache.GetClient()
	if client == nil {
		return nil, cache.ErrNotInitialized
	}

	secret := config.GetSessionSecret()
	if secret == "" {
		logger.Warning("NASWEB_SESSION_SECRET is not set, using a random session secret")
		secret = random.Seq(32)
	}

	store := cache.NewRedisStore(client, []byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   config.GetSessionMaxAge() * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// initRouter initializes Gin, registers middleware, templates, static assets
// and controllers, and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}
	store, err := s.newSessionStore()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".png", ".jpg", ".jpeg", ".gif", ".woff2"}),
	))
	engine.Use(middleware.AccessLogMiddleware())
	engine.Use(middleware.MetricsMiddleware())
	engine.Use(sessions.Sessions(sessionName, store))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(middleware.CurrentUserMiddleware())
	engine.Use(middleware.RedirectMiddleware())

	// i18n falls back to the default language; htmlRender rebinds it to the
	// request's language
	funcMap := template.FuncMap{
		"i18n": func(key string, params ...string) string {
			return locale.Translate(locale.NewLocalizer(), key, params...)
		},
		"formatDate": common.FormatDate,
	}

	if config.IsDebug() {
		load := func() (*template.Template, error) {
			files, err := s.getHtmlFiles()
			if err != nil {
				return nil, err
			}
			return template.New("").Funcs(funcMap).ParseFiles(files...)
		}
		tpl, err := load()
		if err != nil {
			return nil, err
		}
		engine.HTMLRender = &htmlRender{template: tpl, load: load}
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.HTMLRender = &htmlRender{template: tpl}
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	if config.IsMetricsEnabled() {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	g := engine.Group("/")
	s.index = controller.NewIndexController(g)
	s.users = controller.NewUsersController(g)
	s.admin = controller.NewAdminController(g)

	engine.NoRoute(controller.NotFound)

	return engine, nil
}

// handler returns the engine wrapped so HTML forms can send PUT and DELETE.
func (s *Server) handler() (http.Handler, error) {
	engine, err := s.initRouter()
	if err != nil {
		return nil, err
	}
	return middleware.MethodOverride(engine), nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@every 10m", job.NewCheckpointDBJob()); err != nil {
		logger.Warning("add checkpoint db job err:", err)
	}
}

// Start connects to Redis, builds the router and starts serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err = cache.InitRedis(config.GetRedisAddr()); err != nil {
		return err
	}
	if cache.IsEmbedded() {
		logger.Info("using embedded Redis for sessions and cache")
	}

	s.cron = cron.New(cron.WithLocation(time.Local), cron.WithSeconds())
	s.cron.Start()

	handler, err := s.handler()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewRedirectingListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()

	return nil
}

// Stop shuts down the web server, the cron scheduler and the Redis client.
func (s *Server) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	err3 := cache.Close()
	return common.Combine(err1, err2, err3)
}
