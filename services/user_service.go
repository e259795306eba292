package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"dsadmin/apperror"
	"dsadmin/auth"
	"dsadmin/database"
	"dsadmin/models"
	"dsadmin/repositories"

	"gorm.io/gorm"
)

// The UserService interface defines the user administration operations.
// Authorization happens before these are called.
type UserService interface {
	CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// --- Structs for Input/Output ---
type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Status   string `json:"status"` // defaults to active
	Role     string `json:"role"`   // role name, defaults to editor
}

// UpdateUserInput uses pointers to distinguish "not provided" from empty.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Status   *string `json:"status"`
	Role     *string `json:"role"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	users repositories.UserRepository
	roles repositories.RoleRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(users repositories.UserRepository, roles repositories.RoleRepository) UserService {
	return &userService{users: users, roles: roles}
}

var errInvalidStatus = apperror.BadRequest("Invalid status; Can be either 'active' or 'disabled'")

func (s *userService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	_, err := s.users.FindByEmail(ctx, email)
	found, err := exists(err)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.Conflict("Email already registered")
	}

	roleName := input.Role
	if roleName == "" {
		roleName = database.EditorRole
	}
	role, err := s.findRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	status := models.UserStatusActive
	if input.Status != "" {
		if status, err = models.ParseUserStatus(input.Status); err != nil {
			return nil, errInvalidStatus
		}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.Internal("Could not hash password.", err)
	}

	user := models.User{
		Name:     input.Name,
		Email:    email,
		Password: hash,
		Status:   status,
		RoleID:   &role.ID,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, writeError(err, "Email already registered")
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Database error retrieving users.", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		other, err := s.users.FindByEmail(ctx, email)
		found, lookupErr := exists(err)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if found && other.ID != user.ID {
			return nil, apperror.Conflict("Email already in use")
		}
		user.Email = email
	}

	if input.Status != nil {
		status, err := models.ParseUserStatus(*input.Status)
		if err != nil {
			return nil, errInvalidStatus
		}
		user.Status = status
	}

	if input.Role != nil {
		role, err := s.findRole(ctx, *input.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = &role.ID
		user.Role = nil
	}

	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, apperror.Internal("Could not hash password.", err)
		}
		user.Password = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, writeError(err, "Email already in use")
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user); err != nil {
		return apperror.Internal("Failed to delete user.", err)
	}
	return nil
}

func (s *userService) findRole(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.roles.FindByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.BadRequest("Role not found, please create it first")
	}
	if err != nil {
		return nil, apperror.Internal("Database error.", err)
	}
	return role, nil
}

// MapUserToResponse flattens the role to its name.
func MapUserToResponse(user *models.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.Role != nil {
		resp.Role = user.Role.Name
	}
	return resp
}

func MapUsersToResponse(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = MapUserToResponse(&users[i])
	}
	return out
}
