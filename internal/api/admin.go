package api

import (
	"strconv" // String conversion

	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // User-admin service

	"github.com/gin-gonic/gin" // Gin web framework
)

// User admin views
const (
	viewUserIndex   = "Users/Index"
	viewUserDetails = "Users/Details"
	viewUserCreate  = "Users/Create"
	viewUserEdit    = "Users/Edit"
	viewUserDelete  = "Users/Delete"
)

// ListUsersHandler returns one page of users (?page=, ?page_size=)
func ListUsersHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1                           // Default page number
		pageSize := service.DefaultPageSize // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= service.MaxPageSize {
				pageSize = v // Set page size
			}
		}
		list, err := users.List(c.Request.Context(), middleware.CallerFrom(c), page, pageSize)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, viewUserIndex, list)
	}
}

// UserDetailsHandler shows one user
func UserDetailsHandler(users *service.UserService) gin.HandlerFunc {
	return userPage(users, viewUserDetails)
}

// DeleteUserFormHandler shows the delete confirmation
func DeleteUserFormHandler(users *service.UserService) gin.HandlerFunc {
	return userPage(users, viewUserDelete)
}

func userPage(users *service.UserService, view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		u, err := users.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, view, u)
	}
}

// CreateUserFormHandler renders the empty user form
func CreateUserFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, viewUserCreate, service.UserInput{})
	}
}

// CreateUserHandler adds an account without credentials
func CreateUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.UserInput // Bind form to struct
		if !bindForm(c, &in, viewUserCreate) {
			return
		}
		if _, err := users.Create(c.Request.Context(), middleware.CallerFrom(c), in); err != nil {
			fail(c, err, viewUserCreate, in)
			return
		}
		redirect(c, "/Users")
	}
}

// EditUserFormHandler renders the user form filled from the record
func EditUserFormHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		u, err := users.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, viewUserEdit, service.UserInput{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Address:   u.Address,
		})
	}
}

// EditUserHandler updates names, email and address
func EditUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in service.UserInput // Bind form to struct
		if !bindForm(c, &in, viewUserEdit) {
			return
		}
		if _, err := users.Update(c.Request.Context(), middleware.CallerFrom(c), id, in); err != nil {
			fail(c, err, viewUserEdit, in)
			return
		}
		redirect(c, "/Users")
	}
}

// DeleteUserHandler removes a user with their orders
func DeleteUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := users.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			fail(c, err, viewUserDelete, gin.H{"id": id})
			return
		}
		redirect(c, "/Users")
	}
}
