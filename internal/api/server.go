/*
 * Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/handlers"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/middleware"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/models"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
)

// NewRouter builds the load API router
func NewRouter(s *handlers.LoadServer, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// CorrelationIDMiddleware must come first so later middleware and handlers see the ID
	router.Use(middleware.CorrelationIDMiddleware(logger))
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.TraceContextMiddleware())

	router.GET("/allocate", s.Allocate)
	router.GET("/heavy", s.Heavy)
	router.GET("/stats", s.Stats)
	router.GET("/health", s.Health)
	router.GET("/gc", s.GC)

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Status:  "error",
			Message: "Method not allowed",
		})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Message: "Not found",
		})
	})

	return router
}

// Server is the load API HTTP server
type Server struct {
	cfg        *config.ServerConfig
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the load API server listening on cfg.Port
func NewServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: handler,
		},
		logger: logger,
	}
}

// Start serves until Stop is called
func (s *Server) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting load API server", "port", s.cfg.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("load API server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping load API server")
	return s.httpServer.Shutdown(ctx)
}
