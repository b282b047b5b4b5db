package render

import "html/template"

var templates = template.Must(template.New("render").Parse(`
{{define "weather"}}<div class="workout__weather"><span class="workout__icon">🌡</span><span class="workout__value">{{.Temperature}}</span><span class="workout__unit">{{.TempType}}</span><span class="workout__state">{{.WeatherState}}</span></div>{{end}}

{{define "item"}}<li class="workout workout--{{.W.Type}}" data-id="{{.W.ID}}">
  <h2 class="workout__title">{{.W.Description}}</h2>
  <div class="workout__details"><span class="workout__icon">{{.W.Emoji}}</span><span class="workout__value">{{.W.Distance}}</span><span class="workout__unit">km</span></div>
  <div class="workout__details"><span class="workout__icon">⏱</span><span class="workout__value">{{.W.Duration}}</span><span class="workout__unit">min</span></div>
{{- if eq .W.Type "running"}}
  <div class="workout__details"><span class="workout__icon">⚡️</span><span class="workout__value">{{printf "%.1f" .W.Pace}}</span><span class="workout__unit">min/km</span></div>
  <div class="workout__details"><span class="workout__icon">🦶🏼</span><span class="workout__value">{{.W.Cadence}}</span><span class="workout__unit">spm</span></div>
{{- else}}
  <div class="workout__details"><span class="workout__icon">⚡️</span><span class="workout__value">{{printf "%.1f" .W.Speed}}</span><span class="workout__unit">km/h</span></div>
  <div class="workout__details"><span class="workout__icon">⛰</span><span class="workout__value">{{.W.ElevationGain}}</span><span class="workout__unit">m</span></div>
{{- end}}
{{- with .Weather}}
  {{template "weather" .}}
{{- end}}
  <div class="workout__controls"><button class="workout__btn workout__btn--edit" data-action="edit">Edit</button><button class="workout__btn workout__btn--delete" data-action="delete">Delete</button></div>
</li>{{end}}

{{define "edit"}}<li class="workout workout--{{.Type}} workout--edit" data-id="{{.ID}}">
  <form class="form form--edit">
    <input type="hidden" name="type" value="{{.Type}}">
    <label class="form__label">Distance</label><input class="form__input form__input--distance" name="distance" value="{{.Distance}}">
    <label class="form__label">Duration</label><input class="form__input form__input--duration" name="duration" value="{{.Duration}}">
{{- if eq .Type "running"}}
    <label class="form__label">Cadence</label><input class="form__input form__input--cadence" name="cadence" value="{{.Cadence}}">
{{- else}}
    <label class="form__label">Elev Gain</label><input class="form__input form__input--elevation" name="elevation" value="{{.ElevationGain}}">
{{- end}}
    <button class="form__btn" data-action="submit">Submit</button><button class="form__btn" type="button" data-action="cancel">Cancel</button>
  </form>
</li>{{end}}

{{define "popup"}}{{.Emoji}} {{.Description}}{{end}}
`))
