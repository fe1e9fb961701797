package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
)

var errStudentStatus = "students may only mark items Completed"

type progressApi struct {
	svc        progress.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc progress.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := progressApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	pg := g.Group("/progress", jwt)

	// faculty endpoints
	pg.POST("", api.create, facultyMiddleware())
	pg.GET("/student/:id", api.listForStudent, facultyMiddleware())
	pg.GET("/student/:id/tree", api.treeForStudent, facultyMiddleware())
	pg.PUT("/override/:id", api.override, facultyMiddleware())

	// student endpoints
	pg.GET("/me", api.listMine, studentMiddleware())
	pg.GET("/me/tree", api.treeMine, studentMiddleware())
	pg.PUT("/item/:id", api.complete, studentMiddleware())
}

// trapSvcErr maps progress service sentinels to their HTTP counterparts.
func trapSvcErr(err error) error {
	switch errors.Cause(err) {
	case progress.ErrNotFound, progress.ErrParentNotFound, progress.ErrStudentNotFound:
		return errHttpNotFound
	case progress.ErrNotItemOwner, progress.ErrNotSelfService:
		return errHttpForbidden
	}
	return err
}

// Handlers

func (api *progressApi) create(ctx echo.Context) error {
	var data progress.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return trapSvcErr(err)
	}
	return jsonData(ctx, http.StatusCreated, item)
}

func (api *progressApi) listMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying own progress items")
	}
	return jsonOK(ctx, items)
}

func (api *progressApi) treeMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying own progress items")
	}
	return jsonOK(ctx, progress.BuildTree(items))
}

func (api *progressApi) listForStudent(ctx echo.Context) error {
	items, err := api.svc.QueryByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student progress items")
	}
	return jsonOK(ctx, items)
}

func (api *progressApi) treeForStudent(ctx echo.Context) error {
	items, err := api.svc.QueryByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student progress items")
	}
	return jsonOK(ctx, progress.BuildTree(items))
}

// complete is the student self-report path: own Task/Subtask -> Completed.
func (api *progressApi) complete(ctx echo.Context) error {
	var data progress.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.Status != progress.StatusCompleted {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: errStudentStatus})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	item, err := api.svc.Complete(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return trapSvcErr(err)
	}
	return jsonOK(ctx, item)
}

// override is the faculty entry point combining the reopen rule, the
// downward cascade and the upward roll-up.
func (api *progressApi) override(ctx echo.Context) error {
	var data progress.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Override(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return trapSvcErr(err)
	}
	return jsonOK(ctx, item)
}
