package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeserve/safeserve-go/pkg/credentials"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		wantPath string
	}{
		{"customer", RoleCustomer, RegisterPath},
		{"owner", RoleOwner, RegisterOwnerPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t)
			b.handle(http.MethodPost, tt.wantPath, func(w http.ResponseWriter, r *http.Request) {
				var req RegisterRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				writeJSON(w, http.StatusCreated, User{ID: 3, Username: req.Username, Email: req.Email, Role: req.Role})
			})

			c := newTestClient(t, b, credentials.NewMemoryStore())
			user, err := c.Register(context.Background(), RegisterRequest{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "secret",
				Role:     tt.role,
			})
			require.NoError(t, err)
			assert.Equal(t, "bob", user.Username)
			assert.Equal(t, tt.role, user.Role)
			assert.JSONEq(t,
				`{"username":"bob","email":"bob@example.com","password":"secret","role":"`+string(tt.role)+`"}`,
				string(b.lastCall().Body))
		})
	}
}

func TestRegister_InvalidInputIsNotSent(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Email: "a@b.co", Password: "x", Role: RoleCustomer}},
		{"bad email", RegisterRequest{Username: "a", Email: "not-an-email", Password: "x", Role: RoleCustomer}},
		{"missing password", RegisterRequest{Username: "a", Email: "a@b.co", Role: RoleCustomer}},
		{"unknown role", RegisterRequest{Username: "a", Email: "a@b.co", Password: "x", Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t)
			c := newTestClient(t, b, credentials.NewMemoryStore())

			_, err := c.Register(context.Background(), tt.req)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, KindInvalidInput, apiErr.Kind)
			assert.Empty(t, b.callsTo(http.MethodPost, RegisterPath))
		})
	}
}

func TestLoginThenMe(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodPost, LoginPath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] != "alice" || body["password"] != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, TokenPair{Access: "a1", Refresh: "r1"})
	})
	b.handle(http.MethodGet, MePath, meHandler("a1"))

	store := credentials.NewMemoryStore()
	c := newTestClient(t, b, store)
	ctx := context.Background()

	pair, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, &TokenPair{Access: "a1", Refresh: "r1"}, pair)

	stored, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Pair{Access: "a1", Refresh: "r1"}, stored)
	assert.Empty(t, b.lastCall().Authorization, "login is public")

	user, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, []string{"Dairy", "Peanuts"}, user.Restrictions())
	assert.Equal(t, "Bearer a1", b.lastCall().Authorization)
}

func TestLogin_Errors(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodPost, LoginPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	})

	store := credentials.NewMemoryStore()
	c := newTestClient(t, b, store)
	ctx := context.Background()

	_, err := c.Login(ctx, "", "pw")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindInvalidInput, apiErr.Kind)

	// Nothing stored means nothing to refresh with, the rejection surfaces as expired auth
	_, err = c.Login(ctx, "alice", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindAuthExpired, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail(), "No active account found")
	assert.Empty(t, b.callsTo(http.MethodPost, RefreshPath))
	assertCleared(t, store)
}

func TestLogin_ResponseWithoutAccess(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodPost, LoginPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	})

	c := newTestClient(t, b, credentials.NewMemoryStore())
	_, err := c.Login(context.Background(), "alice", "pw")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindDecode, apiErr.Kind)
}

func TestLogout(t *testing.T) {
	store := storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"})
	c, err := New(Config{}, store)
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assertCleared(t, store)
}

func TestUpdateDietaryRestrictions(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodPatch, MePath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, User{Username: "alice", DietaryRestrictions: body["dietary_restrictions"]})
	})

	c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
	user, err := c.UpdateDietaryRestrictions(context.Background(), []string{"Dairy", "Sesame", "Dairy"})
	require.NoError(t, err)
	assert.Equal(t, "Dairy,Sesame", user.DietaryRestrictions)
	assert.JSONEq(t, `{"dietary_restrictions":"Dairy,Sesame"}`, string(b.lastCall().Body))
	assert.Equal(t, "Bearer a1", b.lastCall().Authorization)
}

func TestRestaurants(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodGet, RestaurantsPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Restaurant{{ID: 1, Name: "Noodle Bar", Location: "Main St", CuisineType: "Asian"}})
	})
	b.handle(http.MethodGet, "/api/restaurants/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Restaurant{ID: 1, Name: "Noodle Bar"})
	})
	b.handle(http.MethodPost, RestaurantsPath, func(w http.ResponseWriter, r *http.Request) {
		var in RestaurantInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, Restaurant{ID: 2, Name: in.Name, Location: in.Location, CuisineType: in.CuisineType})
	})
	b.handle(http.MethodGet, "/api/restaurants/2/generate-qr/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
	})

	c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
	ctx := context.Background()

	list, err := c.ListRestaurants(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Asian", list[0].CuisineType)
	assert.Empty(t, b.lastCall().Authorization)

	one, err := c.GetRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Noodle Bar", one.Name)

	created, err := c.CreateRestaurant(ctx, RestaurantInput{Name: "Taco Spot", Location: "2nd Ave", CuisineType: "Mexican"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, "Bearer a1", b.lastCall().Authorization)
	assert.JSONEq(t, `{"name":"Taco Spot","location":"2nd Ave","cuisine_type":"Mexican"}`, string(b.lastCall().Body))

	png, err := c.GenerateQRCode(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), png)

	_, err = c.CreateRestaurant(ctx, RestaurantInput{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindInvalidInput, apiErr.Kind)
}

func TestCategories(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodGet, "/api/restaurants/1/categories/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Category{{ID: 1, Name: "Starters"}})
	})
	b.handle(http.MethodPost, "/api/restaurants/1/categories/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, Category{ID: 2, Name: body["name"]})
	})

	c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
	ctx := context.Background()

	categories, err := c.ListCategories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 1, Name: "Starters"}}, categories)

	category, err := c.CreateCategory(ctx, 1, "Desserts")
	require.NoError(t, err)
	assert.Equal(t, "Desserts", category.Name)
	assert.Equal(t, "Bearer a1", b.lastCall().Authorization)

	_, err = c.CreateCategory(ctx, 1, "")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindInvalidInput, apiErr.Kind)
}

func TestMenuItems(t *testing.T) {
	b := newTestBackend(t)
	echoItem := func(status int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body menuItemPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, status, MenuItem{ID: 9, Name: body.Name, Ingredients: body.Ingredients, Allergens: body.Allergens})
		}
	}
	b.handle(http.MethodPost, "/api/restaurants/1/menu/", echoItem(http.StatusCreated))
	b.handle(http.MethodPut, "/api/restaurants/1/menu/9/", echoItem(http.StatusOK))
	b.handle(http.MethodDelete, "/api/restaurants/1/menu/9/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	b.handle(http.MethodGet, "/api/restaurants/1/menu/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []MenuItem{{ID: 9, Name: "Pad Thai", Allergens: "Peanuts, Eggs", Category: &Category{ID: 1, Name: "Mains"}}})
	})

	c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
	ctx := context.Background()
	categoryID := int64(1)

	created, err := c.CreateMenuItem(ctx, 1, MenuItemInput{
		Name:        "Pad Thai",
		Ingredients: "noodles, peanuts, egg",
		Allergens:   []string{"Peanuts", "Eggs"},
		CategoryID:  &categoryID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Peanuts", "Eggs"}, created.AllergenList())
	assert.JSONEq(t,
		`{"name":"Pad Thai","ingredients":"noodles, peanuts, egg","allergens":"Peanuts,Eggs","category_id":1}`,
		string(b.lastCall().Body))

	updated, err := c.UpdateMenuItem(ctx, 1, 9, MenuItemInput{Name: "Pad Thai (vegan)"})
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai (vegan)", updated.Name)
	assert.JSONEq(t,
		`{"name":"Pad Thai (vegan)","ingredients":"","allergens":"","category_id":null}`,
		string(b.lastCall().Body))

	items, err := c.ListMenuItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mains", items[0].Category.Name)

	require.NoError(t, c.DeleteMenuItem(ctx, 1, 9))
	assert.Equal(t, "Bearer a1", b.lastCall().Authorization)

	_, err = c.UpdateMenuItem(ctx, 1, 9, MenuItemInput{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindInvalidInput, apiErr.Kind)
}

func TestRestaurantDetail(t *testing.T) {
	newBackend := func(t *testing.T) *testBackend {
		b := newTestBackend(t)
		b.handle(http.MethodGet, "/api/restaurants/1/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, Restaurant{ID: 1, Name: "Noodle Bar"})
		})
		b.handle(http.MethodGet, "/api/restaurants/1/menu/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []MenuItem{
				{ID: 1, Name: "Pad Thai", Allergens: "Peanuts,Eggs"},
				{ID: 2, Name: "Rice", Allergens: ""},
				{ID: 3, Name: "Milk Tea", Allergens: "dairy"},
			})
		})
		return b
	}

	t.Run("annotates warnings", func(t *testing.T) {
		b := newBackend(t)
		b.handle(http.MethodGet, MePath, meHandler("a1"))

		c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
		detail, err := c.RestaurantDetail(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, "Noodle Bar", detail.Restaurant.Name)
		assert.Equal(t, []string{"Dairy", "Peanuts"}, detail.Restrictions)
		require.Len(t, detail.Menu, 3)
		assert.Equal(t, []string{"Peanuts"}, detail.Menu[0].Warnings)
		assert.Empty(t, detail.Menu[1].Warnings)
		assert.Equal(t, []string{"dairy"}, detail.Menu[2].Warnings)
	})

	t.Run("tolerates missing user", func(t *testing.T) {
		b := newBackend(t)
		b.handle(http.MethodGet, MePath, meHandler("a1"))

		c := newTestClient(t, b, credentials.NewMemoryStore())
		detail, err := c.RestaurantDetail(context.Background(), 1)
		require.NoError(t, err)
		assert.Empty(t, detail.Restrictions)
		assert.True(t, detail.SessionExpired)
		for _, item := range detail.Menu {
			assert.Empty(t, item.Warnings)
		}
	})

	t.Run("reports expired session", func(t *testing.T) {
		b := newBackend(t)
		b.handle(http.MethodGet, MePath, meHandler("a-valid"))
		b.handle(http.MethodPost, RefreshPath, refreshHandler(http.StatusUnauthorized,
			map[string]string{"detail": "Token is invalid or expired"}))

		store := storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"})
		c := newTestClient(t, b, store)
		detail, err := c.RestaurantDetail(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, detail.SessionExpired)
		assert.Empty(t, detail.Restrictions)
		assert.Len(t, detail.Menu, 3)
		assertCleared(t, store)
	})

	t.Run("other user failures are not an expired session", func(t *testing.T) {
		b := newBackend(t)
		b.handle(http.MethodGet, MePath, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "maintenance"})
		})

		c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
		detail, err := c.RestaurantDetail(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, detail.SessionExpired)
		assert.Empty(t, detail.Restrictions)
	})

	t.Run("menu failure fails the call", func(t *testing.T) {
		b := newBackend(t)
		b.handle(http.MethodGet, MePath, meHandler("a1"))
		b.handle(http.MethodGet, "/api/restaurants/1/menu/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		})

		c := newTestClient(t, b, storeWith(t, credentials.Pair{Access: "a1", Refresh: "r1"}))
		_, err := c.RestaurantDetail(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	})
}

func TestResponseDecodeError(t *testing.T) {
	b := newTestBackend(t)
	b.handle(http.MethodGet, RestaurantsPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	c := newTestClient(t, b, credentials.NewMemoryStore())
	_, err := c.ListRestaurants(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindDecode, apiErr.Kind)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
}
