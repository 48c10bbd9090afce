package recipe

import (
	"errors"
	"net/http"
	"time"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/sanitize"
	"bitwise74/recipe-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrRatingNotFound  = apperr.NotFound("Rating not found")
	ErrCommentNotFound = apperr.NotFound("Comment not found")
	ErrEmptyComment    = apperr.New(http.StatusBadRequest, "EMPTY_COMMENT", "Comment can't be empty")
	ErrNotCommenter    = apperr.Forbidden("You can only delete your own comments")
)

// visible loads :id and hides hidden recipes from everyone
func visible(c *gin.Context, d *internal.Deps) (*model.Recipe, error) {
	r, err := load(c, d)
	if err != nil {
		return nil, err
	}

	if r.IsHidden {
		return nil, ErrRecipeNotFound
	}

	return r, nil
}

func Like(c *gin.Context, d *internal.Deps) {
	r, err := visible(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)

	updated, err := d.Recipes.ToggleLike(c.Request.Context(), r.ID, user.ID)
	if err != nil {
		c.Error(notFound(err))
		return
	}

	response.Success(c, gin.H{
		"liked":      updated.LikedBy(user.ID),
		"likesCount": len(updated.Likes),
	}, "")
}

type rateBody struct {
	Stars   int    `json:"stars" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// Rate adds the user's rating or replaces the one they already left
func Rate(c *gin.Context, d *internal.Deps) {
	var data rateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	r, err := visible(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)

	updated, err := d.Recipes.Rate(c.Request.Context(), r.ID, model.Rating{
		User:    user.ID,
		Stars:   data.Stars,
		Comment: sanitize.Text(data.Comment),
	})
	if err != nil {
		c.Error(notFound(err))
		return
	}

	response.Success(c, gin.H{
		"rating":      updated.RatingBy(user.ID),
		"ratingStats": updated.Stats(),
	}, "Rating saved")
}

func deleteRating(c *gin.Context, d *internal.Deps, recipeID, userID bson.ObjectID) {
	updated, err := d.Recipes.DeleteRating(c.Request.Context(), recipeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Error(ErrRatingNotFound)
			return
		}

		c.Error(err)
		return
	}

	response.Success(c, gin.H{"ratingStats": updated.Stats()}, "Rating removed")
}

// DeleteRating removes the caller's own rating
func DeleteRating(c *gin.Context, d *internal.Deps) {
	r, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	deleteRating(c, d, r.ID, middleware.CurrentUser(c).ID)
}

// AdminDeleteRating removes the rating left by :userId
func AdminDeleteRating(c *gin.Context, d *internal.Deps) {
	r, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	userID, err := util.ParseID(c.Param("userId"))
	if err != nil {
		c.Error(err)
		return
	}

	deleteRating(c, d, r.ID, userID)
}

type commentBody struct {
	Content string `json:"content" binding:"required,max=2000"`
}

func AddComment(c *gin.Context, d *internal.Deps) {
	var data commentBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	content := sanitize.Text(data.Content)
	if content == "" {
		c.Error(ErrEmptyComment)
		return
	}

	r, err := visible(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	cm := model.Comment{
		ID:        bson.NewObjectID(),
		User:      middleware.CurrentUser(c).ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := d.Recipes.AddComment(c.Request.Context(), r.ID, cm); err != nil {
		c.Error(notFound(err))
		return
	}

	response.Created(c, cm, "Comment added")
}

// removeComment deletes :commentId once allowed approves of it
func removeComment(c *gin.Context, d *internal.Deps, allowed func(u *model.User, r *model.Recipe, cm *model.Comment) bool) {
	r, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	commentID, err := util.ParseID(c.Param("commentId"))
	if err != nil {
		c.Error(err)
		return
	}

	cm := r.CommentByID(commentID)
	if cm == nil {
		c.Error(ErrCommentNotFound)
		return
	}

	if !allowed(middleware.CurrentUser(c), r, cm) {
		c.Error(ErrNotCommenter)
		return
	}

	if _, err := d.Recipes.DeleteComment(c.Request.Context(), r.ID, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Error(ErrCommentNotFound)
			return
		}

		c.Error(err)
		return
	}

	response.Success(c, nil, "Comment deleted")
}

// DeleteComment lets the commenter or an admin remove a comment
func DeleteComment(c *gin.Context, d *internal.Deps) {
	removeComment(c, d, func(u *model.User, _ *model.Recipe, cm *model.Comment) bool {
		return u.IsAdmin() || cm.User == u.ID
	})
}

// ModerateComment lets the recipe's author or an admin remove any comment on it
func ModerateComment(c *gin.Context, d *internal.Deps) {
	removeComment(c, d, func(u *model.User, r *model.Recipe, _ *model.Comment) bool {
		return canManage(u, r.CreatedBy)
	})
}
