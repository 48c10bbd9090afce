package recipe

import (
	"net/http"

	"bitwise74/recipe-api/app/form"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrNotAuthor = apperr.Forbidden("Only the author can do this")

// Create accepts JSON or a multipart form with an optional "thumbnail" file
func Create(c *gin.Context, d *internal.Deps) {
	fields, err := form.Read(c)
	if err != nil {
		c.Error(err)
		return
	}

	in, err := parseInput(fields)
	if err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)

	r, err := in.recipe(user.ID)
	if err != nil {
		c.Error(err)
		return
	}

	thumb, err := form.UploadImage(c, d.Uploader, "thumbnail", service.FolderRecipes)
	if err != nil {
		c.Error(err)
		return
	}

	r.Thumbnail = thumb
	if r.Thumbnail == "" {
		r.Thumbnail = viper.GetString("defaults.recipe_thumbnail")
	}

	ctx := c.Request.Context()

	if err := d.Recipes.Create(ctx, r); err != nil {
		d.Uploader.Replace(ctx, thumb)
		c.Error(err)
		return
	}

	response.Created(c, newView(r), "Recipe created")
}

func Update(c *gin.Context, d *internal.Deps) {
	r, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	if !canManage(middleware.CurrentUser(c), r.CreatedBy) {
		c.Error(ErrNotAuthor)
		return
	}

	fields, err := form.Read(c)
	if err != nil {
		c.Error(err)
		return
	}

	in, err := parseInput(fields)
	if err != nil {
		c.Error(err)
		return
	}

	set, err := in.set()
	if err != nil {
		c.Error(err)
		return
	}

	thumb, err := form.UploadImage(c, d.Uploader, "thumbnail", service.FolderRecipes)
	if err != nil {
		c.Error(err)
		return
	}

	if thumb != "" {
		set = append(set, bson.E{Key: "thumbnail", Value: thumb})
	}

	if len(set) == 0 {
		c.Error(apperr.New(http.StatusBadRequest, "NOTHING_TO_UPDATE", "No changes provided"))
		return
	}

	ctx := c.Request.Context()

	updated, err := d.Recipes.Update(ctx, r.ID, set)
	if err != nil {
		d.Uploader.Replace(ctx, thumb)
		c.Error(notFound(err))
		return
	}

	if thumb != "" {
		d.Uploader.Replace(ctx, r.Thumbnail)
	}

	response.Success(c, newView(updated), "Recipe updated")
}

func Delete(c *gin.Context, d *internal.Deps) {
	r, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	if !canManage(middleware.CurrentUser(c), r.CreatedBy) {
		c.Error(ErrNotAuthor)
		return
	}

	ctx := c.Request.Context()

	if err := d.Recipes.Delete(ctx, r.ID); err != nil {
		c.Error(notFound(err))
		return
	}

	d.Uploader.Replace(ctx, r.Thumbnail)
	for _, img := range r.Images {
		d.Uploader.Replace(ctx, img)
	}

	response.Success(c, nil, "Recipe deleted")
}

// SetHidden returns a handler that hides or unhides a recipe
func SetHidden(hidden bool) func(*gin.Context, *internal.Deps) {
	return func(c *gin.Context, d *internal.Deps) {
		r, err := load(c, d)
		if err != nil {
			c.Error(err)
			return
		}

		updated, err := d.Recipes.SetHidden(c.Request.Context(), r.ID, hidden)
		if err != nil {
			c.Error(notFound(err))
			return
		}

		msg := "Recipe is visible"
		if hidden {
			msg = "Recipe hidden"
		}

		response.Success(c, newView(updated), msg)
	}
}
