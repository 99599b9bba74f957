package devserver

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type menuItemInput struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Allergens   string `json:"allergens"`
	CategoryID  *int64 `json:"category_id"`
}

func fieldError(field, msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, map[string][]string{field: {msg}})
}

func badJSON() error {
	return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error")
}

func (s *Server) register(c echo.Context) error {
	var in registerInput
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	if in.Role == "" {
		in.Role = roleCustomer
	}
	if in.Role != roleCustomer && in.Role != roleOwner {
		return fieldError("role", `"`+in.Role+`" is not a valid choice.`)
	}
	return s.createAccount(c, in)
}

func (s *Server) registerOwner(c echo.Context) error {
	var in registerInput
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	in.Role = roleOwner
	return s.createAccount(c, in)
}

func (s *Server) createAccount(c echo.Context, in registerInput) error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return fieldError("username", "This field may not be blank.")
	case in.Password == "":
		return fieldError("password", "This field may not be blank.")
	}

	u, err := s.data.createUser(in.Username, in.Email, in.Password, in.Role)
	if errors.Is(err, errUsernameUsed) {
		return fieldError("username", "A user with that username already exists.")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) obtainToken(c echo.Context) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}

	u, ok := s.data.authenticate(in.Username, in.Password)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "No active account found with the given credentials")
	}

	access, refresh, err := s.tokens.issuePair(u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) refreshToken(c echo.Context) error {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	if in.Refresh == "" {
		return fieldError("refresh", "This field is required.")
	}

	claims, err := s.tokens.verify(in.Refresh, tokenTypeRefresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, map[string]any{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
	}
	id, err := subjectID(claims)
	if err != nil {
		return err
	}

	access, err := s.tokens.issue(id, tokenTypeAccess)
	if err != nil {
		return err
	}
	resp := map[string]string{"access": access}

	if s.config.RotateRefresh {
		refresh, err := s.tokens.issue(id, tokenTypeRefresh)
		if err != nil {
			return err
		}
		s.tokens.markUsed(claims.ID)
		resp["refresh"] = refresh
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) updateMe(c echo.Context) error {
	var in struct {
		DietaryRestrictions *string `json:"dietary_restrictions"`
	}
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}

	u := currentUser(c)
	if in.DietaryRestrictions == nil {
		return c.JSON(http.StatusOK, u)
	}
	updated, err := s.data.setDietaryRestrictions(u.ID, *in.DietaryRestrictions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) listRestaurants(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listRestaurants())
}

func (s *Server) createRestaurant(c echo.Context) error {
	u := currentUser(c)
	if u.Role != roleOwner {
		return echo.NewHTTPError(http.StatusForbidden, "Only restaurant owners can create restaurants.")
	}

	var in struct {
		Name        string `json:"name"`
		Location    string `json:"location"`
		CuisineType string `json:"cuisine_type"`
	}
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	if strings.TrimSpace(in.Name) == "" {
		return fieldError("name", "This field may not be blank.")
	}

	r := s.data.createRestaurant(restaurant{
		Name:        in.Name,
		Location:    in.Location,
		CuisineType: in.CuisineType,
		Owner:       u.ID,
	})
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) getRestaurant(c echo.Context) error {
	r, err := s.restaurantParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) listCategories(c echo.Context) error {
	r, err := s.restaurantParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.data.listCategories(r.ID))
}

func (s *Server) createCategory(c echo.Context) error {
	r, err := s.ownedRestaurant(c)
	if err != nil {
		return err
	}

	var in struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	if strings.TrimSpace(in.Name) == "" {
		return fieldError("name", "This field may not be blank.")
	}
	return c.JSON(http.StatusCreated, s.data.createCategory(r.ID, in.Name))
}

func (s *Server) listMenuItems(c echo.Context) error {
	r, err := s.restaurantParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.data.listMenuItems(r.ID))
}

func (s *Server) createMenuItem(c echo.Context) error {
	return s.saveMenuItem(c, 0, http.StatusCreated)
}

func (s *Server) updateMenuItem(c echo.Context) error {
	itemID, err := idParam(c, "item")
	if err != nil {
		return err
	}
	return s.saveMenuItem(c, itemID, http.StatusOK)
}

func (s *Server) saveMenuItem(c echo.Context, itemID int64, status int) error {
	r, err := s.ownedRestaurant(c)
	if err != nil {
		return err
	}

	var in menuItemInput
	if err := c.Bind(&in); err != nil {
		return badJSON()
	}
	if strings.TrimSpace(in.Name) == "" {
		return fieldError("name", "This field may not be blank.")
	}

	item, err := s.data.saveMenuItem(r.ID, itemID, in)
	if errors.Is(err, errNotFound) {
		if itemID == 0 {
			return fieldError("category_id", "Invalid category.")
		}
		return echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	if err != nil {
		return err
	}
	return c.JSON(status, item)
}

func (s *Server) deleteMenuItem(c echo.Context) error {
	r, err := s.ownedRestaurant(c)
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "item")
	if err != nil {
		return err
	}
	if err := s.data.deleteMenuItem(r.ID, itemID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) generateQR(c echo.Context) error {
	r, err := s.restaurantParam(c)
	if err != nil {
		return err
	}

	data, err := placeholderPNG(r.ID)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func (s *Server) restaurantParam(c echo.Context) (*restaurant, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	r, err := s.data.restaurant(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return r, nil
}

// ownedRestaurant resolves the restaurant and checks that the caller owns it
func (s *Server) ownedRestaurant(c echo.Context) (*restaurant, error) {
	r, err := s.restaurantParam(c)
	if err != nil {
		return nil, err
	}
	if u := currentUser(c); u == nil || u.ID != r.Owner {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action.")
	}
	return r, nil
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return id, nil
}

// placeholderPNG renders a deterministic 21x21 module pattern seeded by id.
// It stands in for a real QR code, which the dev server does not encode.
func placeholderPNG(id int64) ([]byte, error) {
	const modules, scale = 21, 8
	img := image.NewGray(image.Rect(0, 0, modules*scale, modules*scale))
	seed := uint64(id)*2654435761 + 1
	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			seed ^= seed << 13
			seed ^= seed >> 7
			seed ^= seed << 17
			c := color.Gray{Y: 255}
			if seed&1 == 1 {
				c = color.Gray{Y: 0}
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetGray(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
