package widget

import "html/template"

var pageTemplate = template.Must(template.New("agenda").Parse(agendaHTML))

const agendaHTML = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }

    :root {
      --primary: #0f766e;
      --primary-dark: #115e59;
      --text: #1f2937;
      --text-muted: #6b7280;
      --border: #e5e7eb;
      --bg: #f9fafb;
      --white: #ffffff;
      --danger: #dc2626;
    }

    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      background: var(--bg);
      color: var(--text);
      line-height: 1.5;
    }

    .agenda-card {
      max-width: 880px;
      margin: 24px auto;
      background: var(--white);
      border: 1px solid var(--border);
      border-radius: 16px;
      padding: 28px;
    }

    .agenda-header h1 { font-size: 24px; }
    .agenda-header p { color: var(--text-muted); margin-bottom: 20px; }

    .agenda-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 28px; }
    .compact .agenda-grid { grid-template-columns: 1fr; }
    .compact .agenda-header { display: none; }

    .step-title { font-size: 16px; margin-bottom: 12px; }
    .selected-date-label { color: var(--primary); font-weight: 500; }

    .month-nav { display: flex; justify-content: space-between; align-items: center; margin-bottom: 8px; }
    .month-nav button { background: none; border: 1px solid var(--border); border-radius: 8px; padding: 4px 10px; cursor: pointer; }
    .month-label { font-weight: 600; text-transform: capitalize; }

    .days { display: grid; grid-template-columns: repeat(7, 1fr); gap: 4px; text-align: center; }
    .days .dow { font-size: 12px; color: var(--text-muted); padding: 4px 0; }
    .day {
      border: none; background: none; border-radius: 8px; padding: 8px 0;
      cursor: pointer; font-size: 14px; color: var(--text);
    }
    .day:hover:not(:disabled) { background: #ccfbf1; }
    .day:disabled { color: #d1d5db; cursor: default; }
    .day.selected { background: var(--primary); color: var(--white); }

    .slots-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 8px; min-height: 80px; }
    .slot-chip {
      border: 1px solid var(--primary); color: var(--primary); background: var(--white);
      border-radius: 999px; padding: 8px 0; cursor: pointer; font-weight: 500;
    }
    .slot-chip.active { background: var(--primary); color: var(--white); }
    .no-slots { grid-column: 1 / -1; color: var(--text-muted); }
    .no-slots.error { color: var(--danger); }

    .primary-btn, .continue-btn {
      background: var(--primary); color: var(--white); border: none;
      border-radius: 10px; padding: 12px 20px; cursor: pointer; font-weight: 600;
    }
    .continue-btn { width: 100%; margin-top: 16px; }
    .primary-btn:disabled, .continue-btn:disabled { opacity: 0.5; cursor: default; }
    .text-btn { background: none; border: none; color: var(--text-muted); cursor: pointer; }
    .outline-btn {
      background: var(--white); border: 1px solid var(--primary); color: var(--primary);
      border-radius: 10px; padding: 10px 18px; cursor: pointer;
    }

    .summary { background: #f0fdfa; border-radius: 10px; padding: 12px; margin-bottom: 16px; text-transform: capitalize; }
    .booking-form .input-group { margin-bottom: 14px; }
    .booking-form label { display: block; font-size: 14px; margin-bottom: 4px; }
    .booking-form input, .booking-form select {
      width: 100%; padding: 10px; border: 1px solid var(--border); border-radius: 8px; font-size: 15px;
    }
    .form-actions { display: flex; justify-content: space-between; align-items: center; margin-top: 8px; }
    .form-error { color: var(--danger); margin-top: 8px; min-height: 20px; }

    .success-view { text-align: center; padding: 24px 0; }
    .success-view h2 { margin-bottom: 8px; }
    .success-view p { margin-bottom: 20px; color: var(--text-muted); }
    .check-icon { font-size: 56px; color: var(--primary); }

    [hidden] { display: none !important; }
  </style>
</head>
<body>
<div class="agenda-container{{if .Compact}} compact{{end}}">
  <div class="agenda-card">
    <div class="agenda-header">
      <h1>{{.Title}}</h1>
      <p>{{.Subtitle}}</p>
    </div>

    <section id="step-select" class="agenda-grid">
      <div class="calendar-section">
        <h3 class="step-title">1. Elige un día</h3>
        <div class="month-nav">
          <button type="button" id="prev-month" aria-label="Mes anterior">&lsaquo;</button>
          <span class="month-label" id="month-label"></span>
          <button type="button" id="next-month" aria-label="Mes siguiente">&rsaquo;</button>
        </div>
        <div class="days" id="days"></div>
      </div>

      <div class="slots-section">
        <h3 class="step-title">2. Elige una hora <span class="selected-date-label" id="selected-date-label"></span></h3>
        <div class="slots-grid" id="slots">
          <div class="no-slots">Selecciona una fecha primero.</div>
        </div>
        <button type="button" class="continue-btn" id="continue" disabled>Continuar</button>
      </div>
    </section>

    <section id="step-form" hidden>
      <h3 class="step-title">3. Tus datos</h3>
      <div class="summary" id="summary"></div>
      <form class="booking-form" id="booking-form" novalidate>
        <div class="input-group">
          <label for="name">Nombre completo</label>
          <input type="text" id="name" name="name" required placeholder="Tu nombre">
        </div>
        <div class="input-group">
          <label for="phone">Teléfono (WhatsApp)</label>
          <input type="tel" id="phone" name="phone" required placeholder="+56 9 ...">
        </div>
        <div class="input-group">
          <label for="email">Email (opcional)</label>
          <input type="email" id="email" name="email" placeholder="tu@correo.cl">
        </div>
        <div class="input-group">
          <label for="address">Dirección de la visita</label>
          <input type="text" id="address" name="address" required placeholder="Calle, número, comuna">
        </div>
        <div class="input-group">
          <label for="reason">Motivo de consulta</label>
          <select id="reason" name="reason"></select>
        </div>
        <div class="form-error" id="form-error"></div>
        <div class="form-actions">
          <button type="button" class="text-btn" id="back">Volver</button>
          <button type="submit" class="primary-btn" id="submit">Confirmar reserva</button>
        </div>
      </form>
    </section>

    <section id="step-success" class="success-view" hidden>
      <div class="check-icon">&#10003;</div>
      <h2>¡Reserva confirmada!</h2>
      <p id="success-text"></p>
      <button type="button" class="outline-btn" id="restart">Nueva reserva</button>
    </section>
  </div>
</div>

<script>
(function () {
  var config = {{.Config}};
  var weekdays = ['domingo', 'lunes', 'martes', 'miércoles', 'jueves', 'viernes', 'sábado'];
  var months = ['enero', 'febrero', 'marzo', 'abril', 'mayo', 'junio', 'julio',
    'agosto', 'septiembre', 'octubre', 'noviembre', 'diciembre'];

  var today = startOfDay(new Date());
  var state = {
    step: 'selecting',
    month: new Date(today.getFullYear(), today.getMonth(), 1),
    date: null,
    slot: null,
    request: 0
  };

  var el = function (id) { return document.getElementById(id); };

  function startOfDay(d) { return new Date(d.getFullYear(), d.getMonth(), d.getDate()); }
  function pad(n) { return n < 10 ? '0' + n : String(n); }
  function isoDate(d) { return d.getFullYear() + '-' + pad(d.getMonth() + 1) + '-' + pad(d.getDate()); }
  function longDate(d) { return weekdays[d.getDay()] + ' ' + d.getDate() + ' de ' + months[d.getMonth()]; }

  function isDisabled(d) {
    if (config.closedWeekdays.indexOf(d.getDay()) !== -1) return true;
    return config.rejectPastDates && d < today;
  }

  function show(step) {
    state.step = step;
    el('step-select').hidden = step !== 'selecting';
    el('step-form').hidden = step !== 'form';
    el('step-success').hidden = step !== 'success';
  }

  function renderCalendar() {
    var days = el('days');
    days.innerHTML = '';
    ['L', 'M', 'M', 'J', 'V', 'S', 'D'].forEach(function (label) {
      var head = document.createElement('div');
      head.className = 'dow';
      head.textContent = label;
      days.appendChild(head);
    });

    var first = state.month;
    el('month-label').textContent = months[first.getMonth()] + ' ' + first.getFullYear();
    var offset = (first.getDay() + 6) % 7;
    for (var i = 0; i < offset; i++) days.appendChild(document.createElement('div'));

    var count = new Date(first.getFullYear(), first.getMonth() + 1, 0).getDate();
    for (var day = 1; day <= count; day++) {
      var d = new Date(first.getFullYear(), first.getMonth(), day);
      var btn = document.createElement('button');
      btn.type = 'button';
      btn.className = 'day';
      btn.textContent = day;
      btn.disabled = isDisabled(d);
      if (state.date && d.getTime() === state.date.getTime()) btn.className += ' selected';
      btn.addEventListener('click', selectDate.bind(null, d));
      days.appendChild(btn);
    }
  }

  function setSlotsMessage(text, isError) {
    var slots = el('slots');
    slots.innerHTML = '';
    var msg = document.createElement('div');
    msg.className = 'no-slots' + (isError ? ' error' : '');
    msg.textContent = text;
    slots.appendChild(msg);
  }

  function selectDate(d) {
    state.date = d;
    state.slot = null;
    el('continue').disabled = true;
    el('selected-date-label').textContent = '- ' + d.getDate() + ' de ' + months[d.getMonth()];
    renderCalendar();
    loadSlots(d);
  }

  function loadSlots(d) {
    var request = ++state.request;
    setSlotsMessage('Cargando horarios...');
    fetch(config.apiPath + '?date=' + encodeURIComponent(isoDate(d)))
      .then(function (res) {
        return res.json().then(function (body) {
          if (!res.ok) throw new Error(body.error || 'error');
          return body;
        });
      })
      .then(function (slots) {
        if (request !== state.request) return;
        renderSlots(slots);
      })
      .catch(function () {
        if (request !== state.request) return;
        setSlotsMessage('No pudimos cargar los horarios. Intenta nuevamente.', true);
      });
  }

  function renderSlots(slots) {
    if (!slots.length) {
      setSlotsMessage('No hay disponibilidad.');
      return;
    }
    var container = el('slots');
    container.innerHTML = '';
    slots.forEach(function (slot) {
      var chip = document.createElement('button');
      chip.type = 'button';
      chip.className = 'slot-chip' + (state.slot === slot.time ? ' active' : '');
      chip.textContent = slot.time;
      chip.addEventListener('click', function () {
        state.slot = slot.time;
        el('continue').disabled = false;
        renderSlots(slots);
      });
      container.appendChild(chip);
    });
  }

  function renderReasons() {
    var select = el('reason');
    config.reasons.forEach(function (reason) {
      var opt = document.createElement('option');
      opt.value = reason.value;
      opt.textContent = reason.label;
      if (reason.value === config.defaultReason) opt.selected = true;
      select.appendChild(opt);
    });
  }

  function submit(evt) {
    evt.preventDefault();
    var form = el('booking-form');
    var missing = ['name', 'phone', 'address'].filter(function (f) { return !form[f].value.trim(); });
    if (missing.length) {
      el('form-error').textContent = 'Completa nombre, teléfono y dirección.';
      return;
    }
    el('form-error').textContent = '';
    el('submit').disabled = true;

    var payload = {
      date: isoDate(state.date),
      time: state.slot,
      name: form.name.value.trim(),
      phone: form.phone.value.trim(),
      email: form.email.value.trim(),
      address: form.address.value.trim(),
      reason: form.reason.value
    };

    fetch(config.apiPath, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload)
    })
      .then(function (res) {
        return res.json().then(function (body) { return { status: res.status, body: body }; });
      })
      .then(function (result) {
        el('submit').disabled = false;
        if (result.status === 200 && result.body.success) {
          el('success-text').textContent = 'Te esperamos el ' + longDate(state.date) + ' a las ' + state.slot +
            '. Te contactaremos por WhatsApp para confirmar los detalles.';
          show('success');
          return;
        }
        if (result.status === 409) {
          el('form-error').textContent = 'Esa hora acaba de ser tomada. Vuelve y elige otra.';
          return;
        }
        if (result.status === 400) {
          el('form-error').textContent = 'Revisa los datos ingresados.';
          return;
        }
        el('form-error').textContent = 'No pudimos registrar tu reserva. Intenta nuevamente.';
      })
      .catch(function () {
        el('submit').disabled = false;
        el('form-error').textContent = 'No pudimos registrar tu reserva. Intenta nuevamente.';
      });
  }

  function reset() {
    el('booking-form').reset();
    el('reason').value = config.defaultReason;
    el('form-error').textContent = '';
    state.date = null;
    state.slot = null;
    state.request++;
    el('continue').disabled = true;
    el('selected-date-label').textContent = '';
    setSlotsMessage('Selecciona una fecha primero.');
    renderCalendar();
    show('selecting');
  }

  el('prev-month').addEventListener('click', function () {
    state.month = new Date(state.month.getFullYear(), state.month.getMonth() - 1, 1);
    renderCalendar();
  });
  el('next-month').addEventListener('click', function () {
    state.month = new Date(state.month.getFullYear(), state.month.getMonth() + 1, 1);
    renderCalendar();
  });
  el('continue').addEventListener('click', function () {
    if (!state.date || !state.slot) return;
    el('summary').textContent = longDate(state.date) + ' - ' + state.slot + ' hrs';
    show('form');
  });
  el('back').addEventListener('click', function () { show('selecting'); });
  el('restart').addEventListener('click', reset);
  el('booking-form').addEventListener('submit', submit);

  renderReasons();
  renderCalendar();
  show('selecting');
})();
</script>
</body>
</html>
`
