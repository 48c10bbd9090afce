// Package recipe contains the recipe endpoints
package recipe

import (
	"errors"
	"strconv"
	"strings"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrRecipeNotFound = apperr.NotFound("Recipe not found")

// view adds the computed counters to a recipe
type view struct {
	*model.Recipe
	LikesCount int               `json:"likesCount"`
	Stats      model.RatingStats `json:"ratingStats"`
}

func newView(r *model.Recipe) view {
	r.Normalize()

	return view{
		Recipe:     r,
		LikesCount: len(r.Likes),
		Stats:      r.Stats(),
	}
}

func views(rs []model.Recipe) []view {
	out := make([]view, 0, len(rs))
	for i := range rs {
		out = append(out, newView(&rs[i]))
	}

	return out
}

func queryFrom(c *gin.Context) (store.RecipeQuery, error) {
	page, limit := util.Pagination(c.Query("page"), c.Query("limit"))

	q := store.RecipeQuery{
		Q:     strings.TrimSpace(c.Query("q")),
		Tags:  normalizeTags(util.SplitList(c.QueryArray("tags"))),
		Sort:  util.ParseSort(c.Query("sort")),
		Page:  page,
		Limit: limit,
	}

	if d := c.Query("difficulty"); d != "" {
		q.Difficulty = model.Difficulty(strings.ToLower(d))
		if !q.Difficulty.Valid() {
			return q, apperr.ErrValidation.WithMessage("Difficulty must be easy, medium or hard")
		}
	}

	if t := c.Query("maxTotalTime"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			return q, apperr.ErrValidation.WithMessage("maxTotalTime must be a positive number of minutes")
		}

		q.MaxTotalTime = n
	}

	if a := c.Query("author"); a != "" {
		id, err := util.ParseID(a)
		if err != nil {
			return q, err
		}

		q.Author = id
	}

	return q, nil
}

func list(c *gin.Context, d *internal.Deps, includeHidden bool) {
	q, err := queryFrom(c)
	if err != nil {
		c.Error(err)
		return
	}
	q.IncludeHidden = includeHidden

	items, total, err := d.Recipes.List(c.Request.Context(), q)
	if err != nil {
		c.Error(err)
		return
	}

	response.Paginated(c, views(items), total, q.Page, q.Limit)
}

// List returns visible recipes
func List(c *gin.Context, d *internal.Deps) {
	list(c, d, false)
}

// ListAll includes hidden recipes, for admins
func ListAll(c *gin.Context, d *internal.Deps) {
	list(c, d, true)
}

func Get(c *gin.Context, d *internal.Deps) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	r, err := d.Recipes.FindWithAuthor(c.Request.Context(), id)
	if err != nil {
		c.Error(notFound(err))
		return
	}

	if r.IsHidden {
		c.Error(ErrRecipeNotFound)
		return
	}

	response.Success(c, newView(r), "")
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrRecipeNotFound
	}

	return err
}

// load fetches the recipe named by :id
func load(c *gin.Context, d *internal.Deps) (*model.Recipe, error) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return nil, err
	}

	r, err := d.Recipes.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, notFound(err)
	}

	return r, nil
}

func canManage(u *model.User, authorID bson.ObjectID) bool {
	return u.IsAdmin() || u.ID == authorID
}
