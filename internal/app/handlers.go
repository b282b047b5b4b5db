package app

import (
	"errors"
	"strconv"

	"backend-mapty/internal/auth"
	"backend-mapty/internal/mapview"
	"backend-mapty/internal/render"
	"backend-mapty/internal/workout"

	"github.com/gofiber/fiber/v2"
)

type coordsRequest struct {
	Lat float64 `json:"lat" form:"lat"`
	Lng float64 `json:"lng" form:"lng"`
}

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	session := func(c *fiber.Ctx) (*Controller, error) {
		id := auth.SessionID(c)
		if id == "" {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "session required")
		}
		ctrl, err := m.Get(c.Context(), id)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return ctrl, nil
	}

	r.Get("/map", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		return c.JSON(ctrl.MapState())
	})

	r.Post("/map/click", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		var req coordsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		coords := workout.Coords{req.Lat, req.Lng}
		if err := ctrl.MapClick(coords); err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{"form": "visible", "coords": coords})
	})

	r.Post("/map/locate", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		var req coordsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := ctrl.Locate(workout.Coords{req.Lat, req.Lng})
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(st)
	})

	r.Delete("/map/click", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		ctrl.HideForm()
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/workouts", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		html, err := ctrl.ListHTML(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"workouts": nonNil(ctrl.Workouts()), "html": html})
	})

	r.Post("/workouts", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		var form workout.Form
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, err := ctrl.Submit(c.Context(), form)
		if err != nil {
			return toFiberError(err)
		}
		html, err := render.WorkoutItem(w, nil)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workout": w, "html": html})
	})

	r.Post("/workouts/sort", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		var body struct {
			Key string `json:"key" form:"key"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		html, err := ctrl.Sort(c.Context(), body.Key)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"ascending": ctrl.SortAscending(),
			"workouts":  nonNil(ctrl.Workouts()),
			"html":      html,
		})
	})

	r.Get("/workouts/near", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		radius, err3 := strconv.ParseFloat(c.Query("radius_km", "1"), 64)
		if err1 != nil || err2 != nil || err3 != nil || !(radius >= 0) {
			return fiber.NewError(fiber.StatusBadRequest, "lat, lng and radius_km must be numbers")
		}
		coords := workout.Coords{lat, lng}
		if !coords.Valid() {
			return toFiberError(ErrBadCoords)
		}
		workouts, markers := ctrl.Near(coords, radius)
		if markers == nil {
			markers = []mapview.Marker{}
		}
		return c.JSON(fiber.Map{"workouts": nonNil(workouts), "markers": markers})
	})

	r.Post("/workouts/:id/edit", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		html, err := ctrl.Edit(c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "html": html})
	})

	r.Post("/workouts/:id/cancel", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		html, err := ctrl.Cancel(c.Context(), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "html": html})
	})

	r.Put("/workouts/:id", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		var form workout.Form
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, err := ctrl.Update(c.Context(), c.Params("id"), form)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(w)
	})

	r.Delete("/workouts/:id", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		if err := ctrl.Delete(c.Context(), c.Params("id")); err != nil {
			return toFiberError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/workouts/:id/move", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		center, err := ctrl.MoveTo(c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{"center": center, "zoom": ctrl.MapState().Zoom})
	})

	r.Get("/workouts/:id/weather", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		e, err := ctrl.Weather(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		html, err := render.WeatherSnippet(e)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"weather": e, "html": html})
	})

	r.Get("/notice", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		n, ok := ctrl.Notice()
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(n)
	})

	r.Delete("/reset", func(c *fiber.Ctx) error {
		ctrl, err := session(c)
		if err != nil {
			return err
		}
		if err := ctrl.Reset(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func toFiberError(err error) error {
	var verr *workout.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoPendingClick), errors.Is(err, ErrBadSortKey), errors.Is(err, ErrBadCoords):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func nonNil(l workout.List) workout.List {
	if l == nil {
		return workout.List{}
	}
	return l
}
