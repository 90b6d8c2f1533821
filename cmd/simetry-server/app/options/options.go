package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/simetry/internal/simserver"
	"github.com/autopeer-io/simetry/pkg/app"
	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/options"
)

type ServerOptions struct {
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	ScenarioOptions *options.ScenarioOptions `json:"scenario" mapstructure:"scenario"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ServerOptions)(nil)

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HttpOptions:     options.NewHttpOptions(generichttp.DefaultAddress),
		ScenarioOptions: options.NewScenarioOptions(),
		Log:             log.NewOptions(),
	}
}

func (o *ServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.ScenarioOptions.AddFlags(fss.FlagSet("scenario"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ServerOptions) Complete() error {
	return nil
}

func (o *ServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.ScenarioOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ServerOptions) Config() (*simserver.Config, error) {
	return &simserver.Config{
		HttpOptions:     o.HttpOptions,
		ScenarioOptions: o.ScenarioOptions,
	}, nil
}
