// Package blog contains the blog endpoints. Posts are written by admins,
// anyone logged in may comment.
package blog

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bitwise74/recipe-api/app/form"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/sanitize"
	"bitwise74/recipe-api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrBlogNotFound    = apperr.NotFound("Blog not found")
	ErrCommentNotFound = apperr.NotFound("Comment not found")
	ErrNotCommenter    = apperr.Forbidden("You can only delete your own comments")
	ErrEmptyComment    = apperr.New(http.StatusBadRequest, "EMPTY_COMMENT", "Comment can't be empty")
	ErrNothingToUpdate = apperr.New(http.StatusBadRequest, "NOTHING_TO_UPDATE", "No changes provided")
	ErrTitleRequired   = apperr.ErrValidation.WithMessage("Title is required")
)

type input struct {
	Title   string   `binding:"omitempty,min=3,max=200"`
	Summary string   `binding:"max=500"`
	Content string   `binding:"max=100000"`
	Tags    []string `binding:"max=20,dive,required,max=40"`
}

func parseInput(f form.Fields) (*input, error) {
	in := &input{}

	for _, err := range []error{
		f.Decode("title", &in.Title),
		f.Decode("summary", &in.Summary),
		f.Decode("content", &in.Content),
		f.List("tags", &in.Tags, ","),
	} {
		if err != nil {
			return nil, err
		}
	}

	in.Title = sanitize.Text(in.Title)
	in.Summary = sanitize.Text(in.Summary)
	in.Content = sanitize.BlogContent(in.Content)

	tags := []string{}
	for _, t := range in.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags

	if err := form.Validate(in); err != nil {
		return nil, err
	}

	return in, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrBlogNotFound
	}

	return err
}

func load(c *gin.Context, d *internal.Deps) (*model.Blog, error) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return nil, err
	}

	b, err := d.Blogs.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, notFound(err)
	}

	return b, nil
}

func List(c *gin.Context, d *internal.Deps) {
	page, limit := util.Pagination(c.Query("page"), c.Query("limit"))

	q := store.BlogQuery{
		Q:     strings.TrimSpace(c.Query("q")),
		Tags:  util.SplitList(c.QueryArray("tags")),
		Sort:  util.ParseSort(c.Query("sort")),
		Page:  page,
		Limit: limit,
	}

	items, total, err := d.Blogs.List(c.Request.Context(), q)
	if err != nil {
		c.Error(err)
		return
	}

	response.Paginated(c, items, total, page, limit)
}

func Get(c *gin.Context, d *internal.Deps) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	b, err := d.Blogs.FindWithAuthor(c.Request.Context(), id)
	if err != nil {
		c.Error(notFound(err))
		return
	}

	response.Success(c, b, "")
}

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

	if in.Title == "" {
		c.Error(ErrTitleRequired)
		return
	}

	thumb, err := form.UploadImage(c, d.Uploader, "thumbnail", service.FolderBlogs)
	if err != nil {
		c.Error(err)
		return
	}

	b := &model.Blog{
		Title:     in.Title,
		Summary:   in.Summary,
		Content:   in.Content,
		Tags:      in.Tags,
		Thumbnail: thumb,
		AuthorID:  middleware.CurrentUser(c).ID,
	}
	if b.Thumbnail == "" {
		b.Thumbnail = viper.GetString("defaults.blog_thumbnail")
	}

	ctx := c.Request.Context()

	if err := d.Blogs.Create(ctx, b); err != nil {
		d.Uploader.Replace(ctx, thumb)
		c.Error(err)
		return
	}

	response.Created(c, b, "Blog created")
}

func Update(c *gin.Context, d *internal.Deps) {
	b, err := load(c, d)
	if err != nil {
		c.Error(err)
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

	set := bson.D{}
	if fields.Has("title") {
		if in.Title == "" {
			c.Error(ErrTitleRequired)
			return
		}
		set = append(set, bson.E{Key: "title", Value: in.Title})
	}
	if fields.Has("summary") {
		set = append(set, bson.E{Key: "summary", Value: in.Summary})
	}
	if fields.Has("content") {
		set = append(set, bson.E{Key: "content", Value: in.Content})
	}
	if fields.Has("tags") {
		set = append(set, bson.E{Key: "tags", Value: in.Tags})
	}

	thumb, err := form.UploadImage(c, d.Uploader, "thumbnail", service.FolderBlogs)
	if err != nil {
		c.Error(err)
		return
	}
	if thumb != "" {
		set = append(set, bson.E{Key: "thumbnail", Value: thumb})
	}

	if len(set) == 0 {
		c.Error(ErrNothingToUpdate)
		return
	}

	ctx := c.Request.Context()

	updated, err := d.Blogs.Update(ctx, b.ID, set)
	if err != nil {
		d.Uploader.Replace(ctx, thumb)
		c.Error(notFound(err))
		return
	}

	if thumb != "" {
		d.Uploader.Replace(ctx, b.Thumbnail)
	}

	response.Success(c, updated, "Blog updated")
}

func Delete(c *gin.Context, d *internal.Deps) {
	b, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()

	if err := d.Blogs.Delete(ctx, b.ID); err != nil {
		c.Error(notFound(err))
		return
	}

	d.Uploader.Replace(ctx, b.Thumbnail)
	response.Success(c, nil, "Blog deleted")
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

	b, err := load(c, d)
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

	if _, err := d.Blogs.AddComment(c.Request.Context(), b.ID, cm); err != nil {
		c.Error(notFound(err))
		return
	}

	response.Created(c, cm, "Comment added")
}

func DeleteComment(c *gin.Context, d *internal.Deps) {
	b, err := load(c, d)
	if err != nil {
		c.Error(err)
		return
	}

	commentID, err := util.ParseID(c.Param("commentId"))
	if err != nil {
		c.Error(err)
		return
	}

	cm := b.CommentByID(commentID)
	if cm == nil {
		c.Error(ErrCommentNotFound)
		return
	}

	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && cm.User != user.ID {
		c.Error(ErrNotCommenter)
		return
	}

	if _, err := d.Blogs.DeleteComment(c.Request.Context(), b.ID, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Error(ErrCommentNotFound)
			return
		}

		c.Error(err)
		return
	}

	response.Success(c, nil, "Comment deleted")
}
