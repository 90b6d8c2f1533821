package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/simetry/internal/agent"
	"github.com/autopeer-io/simetry/pkg/app"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/options"
)

type AgentOptions struct {
	SourceOptions *options.SourceOptions `json:"source" mapstructure:"source"`
	HttpOptions   *options.HttpOptions   `json:"http" mapstructure:"http"`
	MqttOptions   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	OutputOptions *options.OutputOptions `json:"output" mapstructure:"output"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		SourceOptions: options.NewSourceOptions(),
		HttpOptions:   options.NewHttpOptions("0.0.0.0:9090"),
		MqttOptions:   options.NewMqttOptions(),
		OutputOptions: options.NewOutputOptions(),
		Log:           log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.SourceOptions.AddFlags(fss.FlagSet("source"))
	o.OutputOptions.AddFlags(fss.FlagSet("output"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.SourceOptions.Validate()...)
	errs = append(errs, o.OutputOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*agent.Config, error) {
	return &agent.Config{
		SourceOptions: o.SourceOptions,
		HttpOptions:   o.HttpOptions,
		MqttOptions:   o.MqttOptions,
		OutputOptions: o.OutputOptions,
	}, nil
}
