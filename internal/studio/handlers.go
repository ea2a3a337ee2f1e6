package studio

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Rana718/injectdb/internal/frame"
	"github.com/Rana718/injectdb/internal/importer"
	"github.com/Rana718/injectdb/internal/session"
	"github.com/Rana718/injectdb/internal/studio/common"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps errors caused by the request to 4xx codes.
func statusFor(err error) int {
	var missing *importer.MissingColumnsError
	switch {
	case errors.Is(err, importer.ErrTableNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, importer.ErrNoFrame),
		errors.Is(err, importer.ErrNotConnected),
		errors.Is(err, importer.ErrNoMappings),
		errors.Is(err, importer.ErrIncompleteMapping),
		errors.Is(err, session.ErrUnknownRole),
		errors.Is(err, session.ErrOutOfRange),
		errors.Is(err, session.ErrNothingToPop),
		errors.Is(err, frame.ErrUnsupportedFormat),
		errors.Is(err, frame.ErrEmptyFile),
		errors.As(err, &missing):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return common.JSONError(c, statusFor(err), err.Error())
}

func indexParam(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", session.ErrOutOfRange, c.Params("index"))
	}
	return index, nil
}

// UI Handlers
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.Render("templates/index", fiber.Map{
		"Title":   "injectdb",
		"Formats": frame.Formats,
	})
}

// API Handlers
func (s *Server) handleState(c *fiber.Ctx) error {
	return common.JSON(c, s.service.State(currentSession(c)))
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, "choose a file to upload")
	}

	file, err := header.Open()
	if err != nil {
		return fail(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	preview, err := s.service.Upload(currentSession(c), header.Filename, c.FormValue("format"), file)
	if err != nil {
		return fail(c, err)
	}
	return common.JSONMessageData(c, fmt.Sprintf("Loaded %s (%d rows)", preview.File, preview.Total), preview)
}

func (s *Server) handleConnect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		return fail(c, err)
	}

	resp, err := s.service.Connect(c.UserContext(), currentSession(c), role, req.URL)
	if err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, err.Error())
	}
	return common.JSONMessageData(c, fmt.Sprintf("Connected to %s database", role), resp)
}

func (s *Server) handleGetTables(c *fiber.Ctx) error {
	role, err := session.ParseRole(c.Query("role"))
	if err != nil {
		return fail(c, err)
	}
	tables, err := s.service.Tables(c.UserContext(), currentSession(c), role)
	if err != nil {
		return fail(c, err)
	}
	return common.JSON(c, tables)
}

func (s *Server) handleGetColumns(c *fiber.Ctx) error {
	role, err := session.ParseRole(c.Query("role"))
	if err != nil {
		return fail(c, err)
	}
	columns, err := s.service.Columns(c.UserContext(), currentSession(c), role, c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return common.JSON(c, columns)
}

func (s *Server) handleGetMappings(c *fiber.Ctx) error {
	return common.JSON(c, currentSession(c).Mappings())
}

func (s *Server) handleAddMapping(c *fiber.Ctx) error {
	var m importer.Mapping
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&m); err != nil {
			return common.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	sess := currentSession(c)
	sess.AddMapping(m)
	return common.JSON(c, sess.Mappings())
}

func (s *Server) handleUpdateMapping(c *fiber.Ctx) error {
	index, err := indexParam(c)
	if err != nil {
		return fail(c, err)
	}
	var m importer.Mapping
	if err := c.BodyParser(&m); err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	sess := currentSession(c)
	if err := sess.UpdateMapping(index, m); err != nil {
		return fail(c, err)
	}
	return common.JSON(c, sess.Mappings())
}

func (s *Server) handleRemoveMapping(c *fiber.Ctx) error {
	index, err := indexParam(c)
	if err != nil {
		return fail(c, err)
	}
	sess := currentSession(c)
	removed, err := sess.RemoveMapping(index)
	if err != nil {
		return fail(c, err)
	}
	return common.JSONMessageData(c, fmt.Sprintf("Removed mapping %s", removed), sess.Mappings())
}

func (s *Server) handleGetRelationships(c *fiber.Ctx) error {
	return common.JSON(c, currentSession(c).Relationships())
}

func (s *Server) handleAddRelationship(c *fiber.Ctx) error {
	var r importer.Relationship
	if err := c.BodyParser(&r); err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess := currentSession(c)
	if _, err := sess.AddRelationship(r); err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, err.Error())
	}
	return common.JSONMessageData(c, fmt.Sprintf("Relationship added: %s", r), sess.Relationships())
}

func (s *Server) handleRemoveRelationship(c *fiber.Ctx) error {
	index, err := indexParam(c)
	if err != nil {
		return fail(c, err)
	}
	sess := currentSession(c)
	removed, err := sess.RemoveRelationship(index)
	if err != nil {
		return fail(c, err)
	}
	return common.JSONMessageData(c, fmt.Sprintf("Relationship removed: %s", removed), sess.Relationships())
}

func (s *Server) handleRemoveLastRelationship(c *fiber.Ctx) error {
	sess := currentSession(c)
	removed, err := sess.RemoveLastRelationship()
	if err != nil {
		return fail(c, err)
	}
	return common.JSONMessageData(c, fmt.Sprintf("Relationship removed: %s", removed), sess.Relationships())
}

func (s *Server) handleInsert(c *fiber.Ctx) error {
	resp, err := s.service.Insert(c.UserContext(), currentSession(c))
	if err != nil {
		return fail(c, err)
	}

	if resp.Failed > 0 {
		return common.JSONOutcome(c, false,
			fmt.Sprintf("%d of %d tables failed; %d rows inserted", resp.Failed, len(resp.Tables), resp.Rows), resp)
	}
	return common.JSONOutcome(c, true,
		fmt.Sprintf("Inserted %d rows into %d tables", resp.Rows, len(resp.Tables)), resp)
}

func (s *Server) handleTransfer(c *fiber.Ctx) error {
	var req importer.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := s.service.Transfer(c.UserContext(), currentSession(c), req)
	if err != nil {
		return fail(c, err)
	}
	return common.JSONMessageData(c, fmt.Sprintf("Transferred %d rows into %s", result.Rows, result.Table), result)
}

func (s *Server) handleExportPlan(c *fiber.Ctx) error {
	data, err := importer.MarshalPlan(currentSession(c).Plan())
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="injectdb-plan.yaml"`)
	return c.Send(data)
}

// handleImportPlan accepts the YAML either as a "plan" upload or as the raw body.
func (s *Server) handleImportPlan(c *fiber.Ctx) error {
	data := c.Body()
	if header, err := c.FormFile("plan"); err == nil {
		file, err := header.Open()
		if err != nil {
			return fail(c, fmt.Errorf("failed to open upload: %w", err))
		}
		defer file.Close()

		if data, err = io.ReadAll(file); err != nil {
			return fail(c, fmt.Errorf("failed to read upload: %w", err))
		}
	}

	plan, err := importer.UnmarshalPlan(data)
	if err != nil {
		return common.JSONError(c, fiber.StatusBadRequest, err.Error())
	}

	sess := currentSession(c)
	sess.ApplyPlan(plan)
	return common.JSONMessageData(c,
		fmt.Sprintf("Loaded plan with %d mappings and %d relationships", len(plan.Mappings), len(plan.Relationships)),
		s.service.State(sess))
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	currentSession(c).Reset()
	return common.JSONMessage(c, "Session reset")
}
