package devserver

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	errNotFound     = errors.New("not found")
	errUsernameUsed = errors.New("a user with that username already exists")
)

// User roles
const (
	roleCustomer = "customer"
	roleOwner    = "owner"
)

type user struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	passwordHash        []byte
}

type restaurant struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	CuisineType string `json:"cuisine_type"`
	Owner       int64  `json:"owner"`
}

type category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	restaurantID int64
}

type menuItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Ingredients string    `json:"ingredients"`
	Allergens   string    `json:"allergens"`
	Category    *category `json:"category"`
	restaurant  int64
}

// memoryStore keeps all backend state in process memory
type memoryStore struct {
	mu          sync.RWMutex
	bcryptCost  int
	nextID      int64
	users       map[int64]*user
	restaurants map[int64]*restaurant
	categories  map[int64]*category
	menuItems   map[int64]*menuItem
}

func newMemoryStore(bcryptCost int) *memoryStore {
	return &memoryStore{
		bcryptCost:  bcryptCost,
		users:       make(map[int64]*user),
		restaurants: make(map[int64]*restaurant),
		categories:  make(map[int64]*category),
		menuItems:   make(map[int64]*menuItem),
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) createUser(username, email, password, role string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, errUsernameUsed
		}
	}
	u := &user{ID: s.id(), Username: username, Email: email, Role: role, passwordHash: hash}
	s.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (s *memoryStore) authenticate(username, password string) (*user, bool) {
	s.mu.RLock()
	var found *user
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			found = &copied
			break
		}
	}
	s.mu.RUnlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)) != nil {
		return nil, false
	}
	return found, true
}

func (s *memoryStore) user(id int64) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryStore) setDietaryRestrictions(id int64, restrictions string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	u.DietaryRestrictions = restrictions
	copied := *u
	return &copied, nil
}

func (s *memoryStore) listRestaurants() []restaurant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *memoryStore) createRestaurant(r restaurant) restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.restaurants[r.ID] = &r
	return r
}

func (s *memoryStore) restaurant(id int64) (*restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *memoryStore) listCategories(restaurantID int64) []category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []category{}
	for _, c := range s.categories {
		if c.restaurantID == restaurantID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *memoryStore) createCategory(restaurantID int64, name string) category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &category{ID: s.id(), Name: name, restaurantID: restaurantID}
	s.categories[c.ID] = c
	return *c
}

// categoryFor resolves a category id within a restaurant; nil id means no category
func (s *memoryStore) categoryFor(restaurantID int64, id *int64) (*category, error) {
	if id == nil {
		return nil, nil
	}
	c, ok := s.categories[*id]
	if !ok || c.restaurantID != restaurantID {
		return nil, errNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *memoryStore) listMenuItems(restaurantID int64) []menuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []menuItem{}
	for _, m := range s.menuItems {
		if m.restaurant == restaurantID {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *memoryStore) saveMenuItem(restaurantID, itemID int64, in menuItemInput) (*menuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.categoryFor(restaurantID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	if itemID == 0 {
		itemID = s.id()
	} else if existing, ok := s.menuItems[itemID]; !ok || existing.restaurant != restaurantID {
		return nil, errNotFound
	}

	m := &menuItem{
		ID:          itemID,
		Name:        in.Name,
		Ingredients: in.Ingredients,
		Allergens:   in.Allergens,
		Category:    cat,
		restaurant:  restaurantID,
	}
	s.menuItems[itemID] = m
	copied := *m
	return &copied, nil
}

func (s *memoryStore) deleteMenuItem(restaurantID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menuItems[itemID]
	if !ok || m.restaurant != restaurantID {
		return errNotFound
	}
	delete(s.menuItems, itemID)
	return nil
}
