package browser

import "html/template"

var fixtureTemplates = template.Must(template.New("fixture").Parse(`
{{define "head"}}<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.}} | Konnect</title>
<style>
  .hidden { display: none; }
  .popover-content { display: none; }
  .popover-content.open { display: block; }
  .k-card { border: 1px solid #ccc; margin: 8px; padding: 8px; height: 120px; }
</style>
</head>
<body>
{{end}}

{{define "shell"}}
<nav>
  <a href="/service-catalog">Kong Konnect</a>
  <button data-testid="dropdown-trigger-button">Organization</button>
  <span data-testid="organization-name">{{.KonnectOrgName}}</span>
  <span aria-label="More regions">{{.KonnectRegion}}</span>
  <ul>
    <li><a data-testid="sidebar-item-services" class="sidebar-item active" href="/service-catalog">Services</a></li>
    <li><a data-testid="sidebar-item-integrations" class="sidebar-item" href="/service-catalog/integrations">Integrations</a></li>
  </ul>
</nav>
{{end}}

{{define "services"}}{{template "head" "Service Catalog"}}{{template "shell" .Accounts}}
<main>
  <button data-testid="entity-create-button" onclick="document.getElementById('create-form').classList.remove('hidden')">New service</button>
  <div id="create-form" class="hidden" data-testid="service-fullscreen-form">
    <h2>Create Service</h2>
    <label>Display name <input data-testid="service-display-name"></label>
    <label>Name <input data-testid="service-name"></label>
    <button data-testid="service-submit-button">Create</button>
  </div>
  <table class="table">
    <thead>
      <tr>
        <th><span class="table-header-label">Service</span></th>
        <th><span class="table-header-label">ID</span></th>
        <th><span class="table-header-label">Resources</span></th>
        <th><span class="table-header-label">Created at</span></th>
        <th><span class="table-header-label">Updated at</span></th>
        <th>actions</th>
      </tr>
    </thead>
    <tbody>
    {{range .Services}}
      <tr>
        <td><span class="service-name">{{.Name}}</span><span class="service-slug">{{.Name}}</span></td>
        <td><div class="copy-container"><span class="copy-text">{{.ShortID}}...</span><button>Copy ID</button></div></td>
        <td>{{.Resources}}</td>
        <td>{{.Created}}</td>
        <td>{{.Created}}</td>
        <td><button aria-label="Actions">...</button></td>
      </tr>
    {{end}}
    </tbody>
  </table>
</main>
<script>
  fetch('/v1/notifications/inbox');
  const displayName = document.querySelector('[data-testid=service-display-name]');
  displayName.addEventListener('input', () => {
    document.querySelector('[data-testid=service-name]').value = displayName.value;
  });
  document.querySelector('[data-testid=service-submit-button]').addEventListener('click', async () => {
    const resp = await fetch('/api/services', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({name: displayName.value}),
    });
    const svc = await resp.json();
    window.location.href = '/service-catalog/' + svc.id;
  });
</script>
</body></html>{{end}}

{{define "service"}}{{template "head" .Service.Name}}{{template "shell" .Accounts}}
<main>
  <nav data-testid="page-header-breadcrumbs"><a href="/service-catalog">Service Catalog</a> / {{.Service.Name}}</nav>
  <button data-testid="service-actions-dropdown">Actions</button>
  <span data-testid="copy-tooltip-wrapper" id="copy-id">{{.Service.ShortID}}...</span>
  <div class="popover-content"><div>{{.Service.ID}}</div></div>
  <section data-testid="about-section-content"><h3>About</h3><p>{{.Service.Name}}</p></section>
  <section aria-label="Overview">
    <h3>No Resources Yet</h3>
    <button>Map Resources</button>
  </section>
</main>
<script>
  document.getElementById('copy-id').addEventListener('mouseenter', () => {
    document.querySelector('.popover-content').classList.add('open');
  });
</script>
</body></html>{{end}}

{{define "integrations"}}{{template "head" "Integrations"}}{{template "shell" .Accounts}}
<main>
  <div data-testid="page-header-title">Integrations</div>
  <div id="grid" style="min-height: 4000px">
    <div class="k-card integration-card"><span class="integration-name">Slack</span> <span class="badge">Not Installed</span></div>
    <div class="k-card integration-card"><span class="integration-name">PagerDuty</span> <span class="badge">Not Installed</span></div>
  </div>
</main>
<script>
  // Cards load lazily: GitHub renders after the third scroll.
  let scrolls = 0;
  let loaded = false;
  window.addEventListener('scroll', () => {
    scrolls++;
    if (scrolls < 3 || loaded) {
      return;
    }
    loaded = true;
    const card = document.createElement('div');
    card.className = 'k-card integration-card';
    card.innerHTML = '<span class="integration-name">GitHub</span> <span class="badge">Not Installed</span>';
    card.addEventListener('click', () => {
      window.location.href = '/service-catalog/integrations/github/instances';
    });
    document.getElementById('grid').appendChild(card);
  });
</script>
</body></html>{{end}}

{{define "instances"}}{{template "head" "GitHub"}}{{template "shell" .Accounts}}
<main>
  <div data-testid="page-header-title">GitHub</div>
  <a data-testid="add-integration-instance-button" href="/service-catalog/integrations/github/instances/new">Add instance</a>
</main>
</body></html>{{end}}

{{define "new-instance"}}{{template "head" "New instance"}}{{template "shell" .Accounts}}
<main>
  <div data-testid="page-header-title">Edit instance {{.Name}}</div>
  <label>Display name <input data-testid="integration-display-name-input" value="{{.Name}}"></label>
  <label>Name <input data-testid="integration-name-input" value="{{.Name}}" data-lowercase></label>
  <button data-testid="authorize-button" id="authorize">Authorize</button>
  <div id="install" class="hidden">
    <h2>Install Konnect Service</h2>
    <a href="#" id="pick-org">@{{.Accounts.GitHubOrg}}</a>
  </div>
  <div id="confirm" class="hidden">
    <h2>Install &amp; Authorize Konnect</h2>
    <button id="install-authorize">Install &amp; Authorize</button>
  </div>
  <button data-testid="save-integration-instance-button" id="save">Save</button>
</main>
<script>
  const nameInput = document.querySelector('[data-testid=integration-name-input]');
  nameInput.value = nameInput.value.toLowerCase();
  document.getElementById('authorize').addEventListener('click', () => {
    document.getElementById('install').classList.remove('hidden');
  });
  document.getElementById('pick-org').addEventListener('click', (e) => {
    e.preventDefault();
    document.getElementById('install').classList.add('hidden');
    document.getElementById('confirm').classList.remove('hidden');
  });
  document.getElementById('install-authorize').addEventListener('click', () => {
    document.getElementById('confirm').classList.add('hidden');
  });
  document.getElementById('save').addEventListener('click', async () => {
    const displayName = document.querySelector('[data-testid=integration-display-name-input]').value;
    const resp = await fetch('/api/instances', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({display_name: displayName}),
    });
    const inst = await resp.json();
    window.location.href = '/service-catalog/integrations/github/instances/' + inst.id;
  });
</script>
</body></html>{{end}}

{{define "instance"}}{{template "head" .Instance.DisplayName}}{{template "shell" .Accounts}}
<main>
  <div data-testid="page-header-title">{{.Instance.DisplayName}}</div>
  <div class="integration-instance-about-card">
    <div class="badge-content"><div class="badge-content-wrapper"><span class="badge-text">Authorized</span></div></div>
  </div>
  <table class="table">
    <thead>
      <tr>
        <th><span class="table-header-label">GitHub Repository</span></th>
        <th><span class="table-header-label">Description</span></th>
        <th><span class="table-header-label">Resource Type</span></th>
        <th><span class="table-header-label">Instance</span></th>
        <th><span class="table-header-label">Resource Status</span></th>
        <th><span class="table-header-label">Ingested Date</span></th>
      </tr>
    </thead>
    <tbody>
    {{range .Resources}}
      <tr>
        <td>{{$.Accounts.GitHubOrg}}/{{.Name}}</td>
        <td>-</td>
        <td>Repository</td>
        <td>{{.Instance}}</td>
        <td>{{.Status}}</td>
        <td>{{.Ingested}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>
</main>
</body></html>{{end}}

{{define "resources"}}{{template "head" "Resources"}}{{template "shell" .Accounts}}
<main>
  <div data-testid="page-header-title">Resources</div>
  <table class="table">
    <thead>
      <tr>
        <th><span class="table-header-label">Resource Name</span></th>
        <th><span class="table-header-label">Description</span></th>
        <th><span class="table-header-label">Resource Type</span></th>
        <th><span class="table-header-label">Instance</span></th>
        <th><span class="table-header-label">Resource Status</span></th>
        <th><span class="table-header-label">Ingested Date</span></th>
      </tr>
    </thead>
    <tbody>
    {{range .Resources}}
      <tr>
        <td data-testid="resource-name-cell" title="{{.Name}}" data-resource-id="{{.ID}}" data-instance="{{.Instance}}">{{.Name}}</td>
        <td>-</td>
        <td>Repository</td>
        <td>{{.Instance}}</td>
        <td>{{.Status}}</td>
        <td>{{.Ingested}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>

  <aside data-testid="slideout-container" class="hidden">
    <h2 data-testid="slideout-title"></h2>
    <div class="slideout-content">
      <div class="integration-details"><span class="copy-text" id="resource-id"></span></div>
      <button data-testid="map-service-action-button">Map to service</button>
    </div>
  </aside>

  <div data-testid="resource-action-modal" class="hidden">
    <div class="modal-backdrop">
      <div class="modal-dialog">
        <div class="modal-content">
          <h3>Map Resource</h3>
          <input data-testid="select-input" readonly>
          <div class="select-item-container hidden">
          {{range .Services}}
            <button value="{{.ID}}" data-name="{{.Name}}">{{.Name}}</button>
          {{end}}
          </div>
          <button data-testid="modal-action-button">Map</button>
        </div>
      </div>
    </div>
  </div>
</main>
<script>
  const slideout = document.querySelector('[data-testid=slideout-container]');
  const modal = document.querySelector('[data-testid=resource-action-modal]');
  const select = document.querySelector('[data-testid=select-input]');
  const items = document.querySelector('.select-item-container');
  let serviceID = '';

  document.querySelectorAll('[data-testid=resource-name-cell]').forEach((cell) => {
    cell.addEventListener('click', () => {
      document.querySelector('[data-testid=slideout-title]').textContent = cell.title;
      document.getElementById('resource-id').textContent = cell.dataset.resourceId;
      slideout.classList.remove('hidden');
    });
  });
  document.querySelector('[data-testid=map-service-action-button]').addEventListener('click', () => {
    modal.classList.remove('hidden');
  });
  select.addEventListener('click', () => items.classList.remove('hidden'));
  items.querySelectorAll('button').forEach((btn) => {
    btn.addEventListener('click', () => {
      serviceID = btn.value;
      select.value = btn.dataset.name;
      items.classList.add('hidden');
    });
  });
  document.querySelector('[data-testid=modal-action-button]').addEventListener('click', async () => {
    const resourceID = document.getElementById('resource-id').textContent;
    await fetch('/servicehub/v1/resources/' + resourceID + '/services', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({service_id: serviceID}),
    });
    modal.classList.add('hidden');
  });
</script>
</body></html>{{end}}

{{define "dialog"}}{{template "head" "Uninstall"}}
<main>
  <button id="uninstall">Uninstall</button>
  <p id="result">pending</p>
</main>
<script>
  document.getElementById('uninstall').addEventListener('click', () => {
    const ok = window.confirm('This will uninstall the app. Continue?');
    document.getElementById('result').textContent = ok ? 'accepted' : 'dismissed';
  });
</script>
</body></html>{{end}}
`))
