package server

import (
	"context"
	"net/http"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type TaskAPI struct {
	httpSrv *http.Server
	users   *service.UserService
	tasks   *service.TaskService
	auth    *Authenticator
}

// NewTaskAPI wires the services over the given stores and builds the router.
// It returns nil when a store is missing.
func NewTaskAPI(userRepo service.UserStore, taskRepo service.TaskStore, cfg *Config) *TaskAPI {
	if userRepo == nil || taskRepo == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret = defaultJWTSecret
	}
	addr := ":8080"
	if cfg.Port != 0 {
		addr = cfg.ListenAddr()
	}

	api := &TaskAPI{
		httpSrv: &http.Server{Addr: addr},
		users:   service.NewUserService(userRepo),
		tasks:   service.NewTaskService(taskRepo),
		auth:    NewAuthenticator(secret, cfg.TokenTTL.Duration),
	}
	api.configRoutes()
	return api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	log.WithField("addr", api.httpSrv.Addr).Info("task service listening")
	if err := api.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests and embedding.
func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) configRoutes() {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), GzipRequestDecompress(), GzipResponseCompress())
	router.HandleMethodNotAllowed = true

	router.NoMethod(func(ctx *gin.Context) {
		respondFailure(ctx, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.NoRoute(func(ctx *gin.Context) {
		respondFailure(ctx, http.StatusNotFound, "route not found")
	})

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/register", api.register)
		auth.POST("/login", api.login)
		auth.POST("/logout", api.logout)

		profile := auth.Group("/profile", api.RequireAuth())
		profile.GET("", api.getProfile)
		profile.PUT("", api.updateProfile)
		profile.DELETE("", api.deleteProfile)
	}

	tasks := router.Group("/tasks", api.RequireAuth())
	{
		tasks.GET("", api.getTasks)
		tasks.GET("/:taskID", api.getTask)
		tasks.POST("", api.createTask)
		tasks.PUT("/:taskID", api.updateTask)
		tasks.DELETE("/:taskID", api.deleteTask)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) authResponse(ctx *gin.Context, status int, user *models.User) {
	token, err := api.auth.Issue(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	api.setTokenCookie(ctx, token)
	respondData(ctx, status, models.AuthPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondFailure(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	user, err := api.users.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	api.authResponse(ctx, http.StatusCreated, user)
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondFailure(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	user, err := api.users.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	api.authResponse(ctx, http.StatusOK, user)
}

func (api *TaskAPI) logout(ctx *gin.Context) {
	ctx.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	respondMessage(ctx, "logged out")
}

func (api *TaskAPI) getProfile(ctx *gin.Context) {
	user, err := api.users.Profile(ctx.Request.Context(), currentPrincipal(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, user)
}

func (api *TaskAPI) updateProfile(ctx *gin.Context) {
	var req models.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondFailure(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	user, err := api.users.UpdateProfile(ctx.Request.Context(), currentPrincipal(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	api.authResponse(ctx, http.StatusOK, user)
}

func (api *TaskAPI) deleteProfile(ctx *gin.Context) {
	if err := api.users.DeleteAccount(ctx.Request.Context(), currentPrincipal(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	respondMessage(ctx, "account deleted successfully")
}

func (api *TaskAPI) getTasks(ctx *gin.Context) {
	tasks, err := api.tasks.List(ctx.Request.Context(), currentPrincipal(ctx), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondList(ctx, tasks, len(tasks))
}

func (api *TaskAPI) getTask(ctx *gin.Context) {
	task, err := api.tasks.Get(ctx.Request.Context(), currentPrincipal(ctx), ctx.Param("taskID"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, task)
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondFailure(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	task, err := api.tasks.Create(ctx.Request.Context(), currentPrincipal(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, task)
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	var patch models.TaskPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		respondFailure(ctx, http.StatusBadRequest, errors.ErrBadRequest.Error())
		return
	}
	task, err := api.tasks.Update(ctx.Request.Context(), currentPrincipal(ctx), ctx.Param("taskID"), patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, task)
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	if err := api.tasks.Delete(ctx.Request.Context(), currentPrincipal(ctx), ctx.Param("taskID")); err != nil {
		respondError(ctx, err)
		return
	}
	respondMessage(ctx, "task deleted successfully")
}
