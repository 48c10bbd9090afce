package recipe

import (
	"encoding/json"
	"strings"

	"bitwise74/recipe-api/app/form"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrTitleRequired = apperr.ErrValidation.WithMessage("Title is required")

// input is a create or update body after decoding. Only keys present in the
// request end up in the update.
type input struct {
	Title       string             `binding:"omitempty,min=3,max=200"`
	Summary     string             `binding:"max=500"`
	Content     string             `binding:"max=50000"`
	Ingredients []model.Ingredient `binding:"max=100,dive"`
	Steps       []string           `binding:"max=100,dive,required,max=2000"`
	Time        model.CookTime
	Difficulty  model.Difficulty `binding:"omitempty,oneof=easy medium hard"`
	Servings    int              `binding:"omitempty,min=1,max=100"`
	Tags        []string         `binding:"max=20,dive,required,max=40"`

	present map[string]bool
}

var recipeKeys = []string{"title", "summary", "content", "ingredients", "steps", "time", "difficulty", "servings", "tags"}

// decodeTime accepts a plain number of minutes or a {prep, cook, total}
// object. A missing total is the sum of the other two.
func decodeTime(f form.Fields) (model.CookTime, error) {
	var t model.CookTime

	var minutes int
	if err := json.Unmarshal(f["time"], &minutes); err == nil {
		t.Total = minutes
		return t, nil
	}

	if err := f.Decode("time", &t); err != nil {
		return t, err
	}

	if t.Total == 0 {
		t.Total = t.Prep + t.Cook
	}

	return t, nil
}

func normalizeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}

	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		out = append(out, t)
	}

	return out
}

func parseInput(f form.Fields) (*input, error) {
	in := &input{present: map[string]bool{}}

	for _, k := range recipeKeys {
		in.present[k] = f.Has(k)
	}

	decoders := []error{
		f.Decode("title", &in.Title),
		f.Decode("summary", &in.Summary),
		f.Decode("content", &in.Content),
		f.Decode("ingredients", &in.Ingredients),
		f.List("steps", &in.Steps, "\n"),
		f.Decode("difficulty", &in.Difficulty),
		f.Decode("servings", &in.Servings),
		f.List("tags", &in.Tags, ","),
	}
	for _, err := range decoders {
		if err != nil {
			return nil, err
		}
	}

	if in.present["time"] {
		t, err := decodeTime(f)
		if err != nil {
			return nil, err
		}

		in.Time = t
	}

	in.Title = sanitize.Text(in.Title)
	in.Summary = sanitize.Text(in.Summary)
	in.Content = sanitize.RecipeContent(in.Content)
	in.Difficulty = model.Difficulty(strings.ToLower(string(in.Difficulty)))
	in.Tags = normalizeTags(in.Tags)

	for i := range in.Ingredients {
		in.Ingredients[i].Name = sanitize.Text(in.Ingredients[i].Name)
		in.Ingredients[i].Unit = sanitize.Text(in.Ingredients[i].Unit)
	}

	steps := make([]string, 0, len(in.Steps))
	for _, s := range in.Steps {
		if s = sanitize.Text(s); s != "" {
			steps = append(steps, s)
		}
	}
	in.Steps = steps

	if err := form.Validate(in); err != nil {
		return nil, err
	}

	return in, nil
}

// recipe builds a new document for author
func (in *input) recipe(author bson.ObjectID) (*model.Recipe, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}

	r := &model.Recipe{
		Title:       in.Title,
		Summary:     in.Summary,
		Content:     in.Content,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		Time:        in.Time,
		Difficulty:  in.Difficulty,
		Servings:    in.Servings,
		Tags:        in.Tags,
		CreatedBy:   author,
	}
	r.Normalize()

	return r, nil
}

// set lists the fields an update should write
func (in *input) set() (bson.D, error) {
	set := bson.D{}

	if in.present["title"] {
		if in.Title == "" {
			return nil, ErrTitleRequired
		}

		set = append(set, bson.E{Key: "title", Value: in.Title})
	}
	if in.present["summary"] {
		set = append(set, bson.E{Key: "summary", Value: in.Summary})
	}
	if in.present["content"] {
		set = append(set, bson.E{Key: "content", Value: in.Content})
	}
	if in.present["ingredients"] {
		if in.Ingredients == nil {
			in.Ingredients = []model.Ingredient{}
		}
		set = append(set, bson.E{Key: "ingredients", Value: in.Ingredients})
	}
	if in.present["steps"] {
		set = append(set, bson.E{Key: "steps", Value: in.Steps})
	}
	if in.present["time"] {
		set = append(set, bson.E{Key: "time", Value: in.Time})
	}
	if in.present["difficulty"] && in.Difficulty != "" {
		set = append(set, bson.E{Key: "difficulty", Value: in.Difficulty})
	}
	if in.present["servings"] && in.Servings > 0 {
		set = append(set, bson.E{Key: "servings", Value: in.Servings})
	}
	if in.present["tags"] {
		set = append(set, bson.E{Key: "tags", Value: in.Tags})
	}

	return set, nil
}
