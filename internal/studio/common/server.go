package common

import (
	"io"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

// NewApp creates a Fiber app rendering templates from templatesFS. Requests
// are logged to accessLog when it is not nil.
func NewApp(templatesFS fs.FS, bodyLimit int, accessLog io.Writer) *fiber.App {
	engine := html.NewFileSystem(http.FS(templatesFS), ".html")
	app := fiber.New(fiber.Config{
		Views:                 engine,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if accessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
			Output: accessLog,
		}))
	}
	return app
}

// SetupStaticFS mounts the embedded static directory under /static
func SetupStaticFS(app *fiber.App, staticFS fs.FS) error {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	app.Use("/static", filesystem.New(filesystem.Config{
		Root: http.FS(sub),
	}))
	return nil
}

// errorHandler keeps unhandled errors, panics included, in the JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		status = e.Code
	}
	return JSONError(c, status, err.Error())
}
