// Package web exposes the NAS synchronization engine's server side as a
// gin-gonic HTTP API, per spec.md §6. Handlers are thin: they decode a
// request, call into internal/nas's pure functions, and translate the
// result into the JSON envelope the protocol specifies — the same
// "pure function, thin wrapper" split internal/nas itself follows.
package web

import (
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"

	"github.com/timlin1972/cng3/internal/hashutil"
	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/nas"
)

// maxBodySize enforces spec.md §6's "Body size cap 100 MiB".
const maxBodySize = 100 << 20

const module = "web"

// Server owns the NAS shared folder on behalf of the gin router; every
// handler that touches the filesystem goes through FolderLock to stay clear
// of the local filesystem watcher (SPEC_FULL.md §4.2).
type Server struct {
	Folder      string
	FolderLock  *flock.Flock
	UploadDir   string
	NasMount    string
	Sender      msg.Sender
	logger      *log.Logger
	engine      *gin.Engine
	httpServer  *http.Server
}

// New builds a Server bound to folder, staging uploads under uploadDir and
// serving the shared folder at nasMount (e.g. "/nas").
func New(folder string, folderLock *flock.Flock, uploadDir, nasMount string, sender msg.Sender, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		Folder:     folder,
		FolderLock: folderLock,
		UploadDir:  uploadDir,
		NasMount:   nasMount,
		Sender:     sender,
		logger:     logger,
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.MaxMultipartMemory = maxBodySize
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleHello)
	s.engine.POST("/check_hash", s.handleCheckHash)
	s.engine.POST("/verify_hash", s.handleVerifyHash)
	s.engine.POST("/upload", s.handleUpload)
	s.engine.POST("/remove", s.handleRemove)
	s.engine.POST("/download", s.handleDownload)
	s.engine.POST("/api/v1/upload", s.handleMultipartUpload)
	s.engine.StaticFS(s.NasMount, http.Dir(s.Folder))
}

// Run starts the HTTP server on addr (e.g. ":8080") and blocks until the
// server stops or ctx's parent cancels it (via Shutdown).
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, called when the bus's shutdown broadcast
// fires (SPEC_FULL.md's context.Context-based replacement for the teacher's
// shutdown channel).
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func (s *Server) info(text string) {
	if s.Sender != nil {
		s.Sender.Send(msg.NewLog(module, msg.LevelInfo, text))
	}
}

func (s *Server) warn(text string) {
	if s.Sender != nil {
		s.Sender.Send(msg.NewLog(module, msg.LevelWarn, text))
	}
}

func (s *Server) handleHello(c *gin.Context) {
	c.String(http.StatusOK, "Hello world!")
}

type checkHashRequest struct {
	Data struct {
		Name    string `json:"name"`
		HashStr string `json:"hash_str"`
	} `json:"data"`
}

// handleCheckHash implements spec.md §6's /check_hash: computes the local
// FileList, compares hash_str, and as a side effect emits a nas_state
// command so the peer-state plugin can advance this client's NasState.
func (s *Server) handleCheckHash(c *gin.Context) {
	var req checkHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request")
		return
	}

	fileList, err := nas.ComputeFileList(s.Folder)
	if err != nil {
		s.warn("check_hash: computing file list: " + err.Error())
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	same := req.Data.HashStr == fileList.HashStr
	state := "Syncing"
	if same {
		state = "Synced"
	}
	s.info("API: check_hash: " + req.Data.Name + ", same=" + boolStr(same))
	s.Sender.Send(msg.NewCmd(module, "p nas nas_state "+req.Data.Name+" "+state))

	if same {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"result": 0}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"result": 1, "file_list": fileList}})
}

type verifyHashRequest struct {
	Data struct {
		Filename string `json:"filename"`
		HashStr  string `json:"hash_str"`
	} `json:"data"`
}

// handleVerifyHash implements /verify_hash: result 0 means the server
// already holds identical content for filename, sparing the client an
// upload (spec.md §4.2's idempotence law).
func (s *Server) handleVerifyHash(c *gin.Context) {
	var req verifyHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request")
		return
	}
	if !nas.IsValidFilename(req.Data.Filename) {
		c.String(http.StatusBadRequest, "Invalid filename")
		return
	}

	content, err := readFile(req.Data.Filename)
	if err != nil {
		// file absent on server: treat as different, client must upload.
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"result": 1}})
		return
	}
	same := hashutil.Hex(content) == req.Data.HashStr
	result := 1
	if same {
		result = 0
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"result": result}})
}

type uploadRequest struct {
	Data struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
		Mtime    string `json:"mtime"`
	} `json:"data"`
}

func (s *Server) handleUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request")
		return
	}
	if !nas.IsValidFilename(req.Data.Filename) {
		c.String(http.StatusBadRequest, "Invalid filename")
		return
	}

	if err := nas.WriteFile(s.FolderLock, req.Data.Filename, req.Data.Content, req.Data.Mtime); err != nil {
		s.warn("failed to write `" + req.Data.Filename + "`: " + err.Error())
		c.String(http.StatusInternalServerError, "Failed to write file")
		return
	}
	s.info("API: upload `" + req.Data.Filename + "`")
	c.Status(http.StatusOK)
}

type removeRequest struct {
	Data struct {
		Filename string `json:"filename"`
	} `json:"data"`
}

func (s *Server) handleRemove(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request")
		return
	}
	if !nas.IsValidFilename(req.Data.Filename) {
		c.String(http.StatusBadRequest, "Invalid filename")
		return
	}

	if err := nas.SafeRemove(s.FolderLock, req.Data.Filename); err != nil {
		s.warn("failed to remove `" + req.Data.Filename + "`: " + err.Error())
		c.String(http.StatusInternalServerError, "Failed to remove file")
		return
	}
	s.info("API: REMOVE `" + req.Data.Filename + "`")
	c.Status(http.StatusOK)
}

type downloadRequest struct {
	Data struct {
		Filename string `json:"filename"`
	} `json:"data"`
}

func (s *Server) handleDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request")
		return
	}
	if !nas.IsValidFilename(req.Data.Filename) {
		c.String(http.StatusBadRequest, "Invalid filename")
		return
	}

	content, mtime, err := readFileWithMtime(req.Data.Filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "file does not exist"})
		return
	}
	s.info("API: GET `" + req.Data.Filename + "`")
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"filename": req.Data.Filename,
		"content":  content,
		"mtime":    mtime,
	}})
}

// handleMultipartUpload implements spec.md §6's /api/v1/upload: each part of
// a multipart body is written into the staging directory, untouched by the
// reconciliation protocol (this is the upload-staging path, not the NAS
// shared-folder path).
func (s *Server) handleMultipartUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.String(http.StatusBadRequest, "invalid multipart body")
		return
	}

	var written []string
	for field, headers := range form.File {
		for _, fh := range headers {
			dst := filepath.Join(s.UploadDir, filepath.Base(fh.Filename))
			if err := c.SaveUploadedFile(fh, dst); err != nil {
				s.warn("multipart upload: saving " + field + "/" + fh.Filename + ": " + err.Error())
				c.String(http.StatusInternalServerError, "failed to stage upload")
				return
			}
			written = append(written, dst)
		}
	}
	s.info("API: multipart upload staged " + filepath.Join(s.UploadDir))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"written": written}})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
