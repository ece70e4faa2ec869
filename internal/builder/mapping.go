package builder

import (
	"context"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// InputError is a validation failure caught before any network call. Its
// text is shown to the user as is.
type InputError string

func (e InputError) Error() string { return string(e) }

const (
	ErrNameRequired InputError = "Form name is required"
	ErrNoFields     InputError = "At least one field is required"
)

// createFailed is shown when the service gives no message of its own.
const createFailed = "Failed to create form"

// Validate checks the local preconditions for publishing.
func (s *State) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if len(s.fields) == 0 {
		return ErrNoFields
	}
	return nil
}

// ToCreateRequest maps the state onto the form service's field mapping.
// Entries are emitted in list order, but the service does not keep it.
func (s *State) ToCreateRequest() (*model.CreateFormRequest, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	fields := model.NewFieldMap()
	for _, f := range s.fields {
		fields.Set(f.ID, model.FieldSpec{
			Type:     f.Kind.Lower(),
			Question: f.Label,
			Required: f.Required,
		})
	}
	return &model.CreateFormRequest{Name: s.Name, Fields: fields}, nil
}

// FormCreator creates forms on the form service.
type FormCreator interface {
	CreateForm(ctx context.Context, req *model.CreateFormRequest) (*model.FormDefinition, error)
}

// PublishError wraps a failed create call with the message to show the user.
type PublishError struct {
	Message string
	Err     error
}

func (e *PublishError) Error() string { return e.Message }

func (e *PublishError) Unwrap() error { return e.Err }

// Publish validates, maps and creates the form. The state is left untouched,
// so a failed publish can be retried; repeated calls create repeated forms.
func (s *State) Publish(ctx context.Context, c FormCreator) (*model.FormDefinition, error) {
	req, err := s.ToCreateRequest()
	if err != nil {
		return nil, err
	}
	def, err := c.CreateForm(ctx, req)
	if err != nil {
		return nil, &PublishError{Message: model.UserMessage(err, createFailed), Err: err}
	}
	return def, nil
}
