package accounts

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// AccountsController is the thin JSON surface over the registration and
// authentication flows. Routing, CORS, and the rest of the middleware
// chain belong to the host application.
type AccountsController struct {
	Debug   bool
	Logger  Logger
	Repo    RepositoryManager
	Media   MediaStore
	Hasher  PasswordHasher
	Auther  *Authenticator
	TempDir string
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:  defLogger{},
		TempDir: os.TempDir(),
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Media == nil {
		panic("Missing MediaStore in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the JSON endpoints under /api/v1
func RegisterAccountRoutes(app *fiber.App, opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	api := app.Group("/api/v1")
	api.Post("/users/register", controller.RegisterPost)
	api.Post("/users/login", controller.LoginPost)
	api.Post("/users/refresh-token", controller.RefreshPost)
	api.Post("/users/logout", controller.LogoutPost)
	api.Get("/healthcheck", controller.Healthcheck)
}

// RegisterPost accepts a multipart form: the account fields plus an
// avatar file (required) and a cover image (optional). Files are spooled
// to the controller's temp dir; the saga owns them from there.
func (a *AccountsController) RegisterPost(c *fiber.Ctx) error {
	msg := RegisterAccountMessage{
		FullName: c.FormValue("full_name"),
		Email:    c.FormValue("email"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}

	avatarPath, err := a.spoolFormFile(c, "avatar")
	if err != nil {
		a.Logger.Error("spool avatar file: %v", err)
		return a.writeError(c, err)
	}
	msg.AvatarFilePath = avatarPath

	coverPath, err := a.spoolFormFile(c, "cover_image")
	if err != nil {
		a.Logger.Error("spool cover file: %v", err)
		return a.writeError(c, err)
	}
	msg.CoverFilePath = coverPath

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(msg))
	}

	var view *AccountView
	msg.OnResponse = func(v *AccountView) {
		view = v
	}

	handler := NewRegisterAccountHandler(a.Repo, a.Media, a.Hasher).WithLogger(a.Logger)
	if err := handler.Execute(c.Context(), msg); err != nil {
		a.Logger.Error("register account error: %v", err)
		return a.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Status:  fiber.StatusCreated,
		Data:    view,
		Message: "Account registered successfully",
	})
}

func (a *AccountsController) LoginPost(c *fiber.Ctx) error {
	input := LoginInput{}
	if err := c.BodyParser(&input); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.writeError(c, NewValidationError(map[string]any{"body": "failed to parse request body"}))
	}

	result, err := a.Auther.Login(c.Context(), input)
	if err != nil {
		return a.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Data:    result,
		Message: "Logged in successfully",
	})
}

// RefreshPayload carries the refresh token for rotation and logout
type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

func (a *AccountsController) RefreshPost(c *fiber.Ctx) error {
	payload := RefreshPayload{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Error("refresh parse payload: %v", err)
		return a.writeError(c, NewValidationError(map[string]any{"body": "failed to parse request body"}))
	}

	result, err := a.Auther.RefreshTokens(c.Context(), payload.RefreshToken)
	if err != nil {
		return a.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Data:    result,
		Message: "Tokens refreshed successfully",
	})
}

func (a *AccountsController) LogoutPost(c *fiber.Ctx) error {
	payload := RefreshPayload{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Error("logout parse payload: %v", err)
		return a.writeError(c, NewValidationError(map[string]any{"body": "failed to parse request body"}))
	}

	if err := a.Auther.LogoutByToken(c.Context(), payload.RefreshToken); err != nil {
		return a.writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Message: "Logged out successfully",
	})
}

func (a *AccountsController) Healthcheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Message: "OK",
	})
}

func (a *AccountsController) writeError(c *fiber.Ctx, err error) error {
	status, body := MapErrorResponse(err)
	return c.Status(status).JSON(body)
}

// spoolFormFile saves a multipart file into the temp dir under a random
// name, returning the local path the media store uploads from. An absent
// field yields an empty path with no error; the message validation is
// what reports missing required files. A failed save is an internal
// error, not the client's fault.
func (a *AccountsController) spoolFormFile(c *fiber.Ctx, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return "", nil
	}

	path := filepath.Join(a.TempDir, fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFilename(fh)))
	if err := c.SaveFile(fh, path); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store uploaded file")
	}

	return path, nil
}

func sanitizeFilename(fh *multipart.FileHeader) string {
	return filepath.Base(filepath.Clean(fh.Filename))
}
