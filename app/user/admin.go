package user

import (
	"errors"
	"net/http"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrUserNotFound = apperr.NotFound("User not found")
	ErrSelfAction   = apperr.New(http.StatusBadRequest, "SELF_ACTION", "You can't do this to your own account")
)

func List(c *gin.Context, d *internal.Deps) {
	page, limit := util.Pagination(c.Query("page"), c.Query("limit"))

	users, total, err := d.Users.List(c.Request.Context(), page, limit)
	if err != nil {
		c.Error(err)
		return
	}

	response.Paginated(c, users, total, page, limit)
}

// target loads the user named by the :id path parameter
func target(c *gin.Context, d *internal.Deps) (*model.User, error) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return nil, err
	}

	u, err := d.Users.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return u, nil
}

func notSelf(c *gin.Context, id bson.ObjectID) error {
	if middleware.CurrentUser(c).ID == id {
		return ErrSelfAction
	}

	return nil
}

func Get(c *gin.Context, d *internal.Deps) {
	u, err := target(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, u, "")
}

type statusBody struct {
	Status model.Status `json:"status" binding:"required,oneof=active blocked"`
}

func SetStatus(c *gin.Context, d *internal.Deps) {
	var data statusBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	u, err := target(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	if err := notSelf(c, u.ID); err != nil {
		c.Error(err)
		return
	}

	updated, err := d.Users.Update(c.Request.Context(), u.ID, store.UserUpdate{Status: &data.Status})
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, updated, "Status updated")
}

type roleBody struct {
	Role model.Role `json:"role" binding:"required,oneof=user admin staff"`
}

func SetRole(c *gin.Context, d *internal.Deps) {
	var data roleBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	u, err := target(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	if err := notSelf(c, u.ID); err != nil {
		c.Error(err)
		return
	}

	updated, err := d.Users.Update(c.Request.Context(), u.ID, store.UserUpdate{Role: &data.Role})
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, updated, "Role updated")
}

func Delete(c *gin.Context, d *internal.Deps) {
	u, err := target(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	if err := notSelf(c, u.ID); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()

	if err := d.Users.Delete(ctx, u.ID); err != nil {
		c.Error(err)
		return
	}

	d.Uploader.Replace(ctx, u.Avatar)
	response.Success(c, nil, "User deleted")
}
