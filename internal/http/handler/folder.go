package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
)

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// CreateFolder adds a folder. parentId is stored as given.
//
// @Summary Create a folder
// @Tags folders
// @Accept json
// @Produce json
// @Param body body createFolderRequest true "Folder"
// @Success 201 {object} envelope{data=model.Folder}
// @Failure 400 {object} envelope
// @Router /api/folders [post]
func CreateFolder(svc service.FolderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createFolderRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		f, err := svc.Create(c.UserContext(), req.Name, req.ParentID)
		if err != nil {
			if errors.Is(err, service.ErrNameRequired) {
				return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "Folder name is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusCreated, f, "")
	}
}

// @Summary List folders
// @Tags folders
// @Produce json
// @Success 200 {object} envelope{data=[]model.Folder}
// @Router /api/folders [get]
func ListFolders(svc service.FolderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		folders, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if folders == nil {
			folders = []model.Folder{}
		}
		return writeData(c, fiber.StatusOK, folders, "")
	}
}

// FolderTree returns the folder forest with nested children.
//
// @Summary Folder tree
// @Tags folders
// @Produce json
// @Success 200 {object} envelope{data=[]model.FolderNode}
// @Router /api/folders/tree [get]
func FolderTree(svc service.FolderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tree, err := svc.Tree(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if tree == nil {
			tree = []model.FolderNode{}
		}
		return writeData(c, fiber.StatusOK, tree, "")
	}
}

// @Summary Get a folder
// @Tags folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} envelope{data=model.Folder}
// @Failure 404 {object} envelope
// @Router /api/folders/{id} [get]
func GetFolder(svc service.FolderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrFolderNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Folder not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, f, "")
	}
}

// DeleteFolder removes one folder; children and documents keep their references.
//
// @Summary Delete a folder
// @Tags folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/folders/{id} [delete]
func DeleteFolder(svc service.FolderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, service.ErrFolderNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Folder not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, nil, "Folder deleted successfully")
	}
}
