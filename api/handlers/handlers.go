package handlers

import (
	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/service/process"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

type Handlers struct {
	Files   *FileHandler
	Process *ProcessHandler
	Auth    *AuthHandler
}

func NewHandlers(
	fileService files.FileService,
	processor process.Processor,
	authService auth.AuthService,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Files:   NewFileHandler(fileService, logger),
		Process: NewProcessHandler(processor, logger),
		Auth:    NewAuthHandler(authService, logger),
	}
}
